// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAuthUserNotFound  = "auth.user_not_found"
	KeyAuthUserSuspended = "auth.user_suspended"
	KeyStaffAccessDenied = "auth.staff_access_denied"

	// User
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"

	// License requests
	KeyLicenseCreated          = "license.created"
	KeyLicenseUpdated          = "license.updated"
	KeyLicenseSubmitted        = "license.submitted"
	KeyLicenseDeleted          = "license.deleted"
	KeyLicenseCanceled         = "license.canceled"
	KeyLicenseRenewed          = "license.renewed"
	KeyLicenseNotFound         = "license.not_found"
	KeyLicenseAlreadySubmitted = "license.already_submitted"
	KeyLicenseNotSubmitted     = "license.not_submitted"
	KeyLicenseStateInvalid     = "license.state_invalid"
	KeyLicenseTransition       = "license.transition_applied"
	KeyLicenseConflict         = "license.concurrent_update"

	// Vehicles
	KeyVehicleCreated   = "vehicle.created"
	KeyVehicleUpdated   = "vehicle.updated"
	KeyVehicleDeleted   = "vehicle.deleted"
	KeyVehicleNotFound  = "vehicle.not_found"
	KeyVehicleInUse     = "vehicle.in_use"
	KeyVehicleDuplicate = "vehicle.duplicate_plate"

	// Transporters
	KeyTransporterCreated  = "transporter.created"
	KeyTransporterUpdated  = "transporter.updated"
	KeyTransporterNotFound = "transporter.not_found"

	// Payments
	KeyPaymentSuccess  = "payment.success"
	KeyPaymentFailed   = "payment.failed"
	KeyPaymentRefunded = "payment.refunded"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// File upload
	KeyFileUploadSuccess = "file.upload_success"
	KeyFileUploadFailed  = "file.upload_failed"
	KeyFileInvalidType   = "file.invalid_type"
	KeyFileTooLarge      = "file.too_large"

	// Public verification
	KeyVerificationNotFound = "verification.not_found"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.marked_read"
)
