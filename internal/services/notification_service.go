// internal/services/notification_service.go
package services

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/utils"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// statusLabels are the requester-facing Portuguese names of the workflow
// statuses, used in notification text.
var statusLabels = map[models.LicenseStatus]string{
	models.StatusPendingRegistration:    "cadastro pendente",
	models.StatusRegistrationInProgress: "cadastro em andamento",
	models.StatusUnderReview:            "em análise",
	models.StatusPendingApproval:        "aguardando aprovação",
	models.StatusApproved:               "aprovada",
	models.StatusRejected:               "recusada",
	models.StatusCanceled:               "cancelada",
}

// SendLicenseSubmittedNotification records the submission for the requester
// and emails a confirmation.
func (s *NotificationService) SendLicenseSubmittedNotification(request *models.LicenseRequest) error {
	notification := &models.Notification{
		UserID:           request.UserID,
		Type:             models.NotificationTypeLicenseStatus,
		Title:            "Solicitação enviada",
		Message:          fmt.Sprintf("Sua solicitação %s foi enviada para processamento.", request.RequestNumber),
		LicenseRequestID: &request.ID,
	}
	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", request.UserID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	data := map[string]interface{}{
		"Name":          user.Name,
		"RequestNumber": request.RequestNumber,
		"States":        []string(request.States),
		"RequestURL":    fmt.Sprintf("%s/licencas/%s", s.config.Frontend.BaseURL, request.ID),
	}
	body, err := s.renderTemplate(s.getEmailTemplate("license_submitted").Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(user.Email, "Solicitação enviada - "+request.RequestNumber, body)
}

// SendStatusChangeNotification records a status change for the requester. An
// empty state means the whole request moved, such as a cancellation.
func (s *NotificationService) SendStatusChangeNotification(request *models.LicenseRequest, state string, status models.LicenseStatus) error {
	label := statusLabels[status]
	if label == "" {
		label = string(status)
	}

	notification := &models.Notification{
		UserID:           request.UserID,
		LicenseRequestID: &request.ID,
		State:            state,
	}
	if state == "" {
		notification.Type = models.NotificationTypeLicenseStatus
		notification.Title = "Solicitação atualizada"
		notification.Message = fmt.Sprintf("Sua solicitação %s está %s.", request.RequestNumber, label)
	} else {
		notification.Type = models.NotificationTypeStateStatus
		notification.Title = fmt.Sprintf("Atualização em %s", state)
		notification.Message = fmt.Sprintf("A licença da solicitação %s para %s está %s.",
			request.RequestNumber, state, label)
	}
	if err := s.db.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", request.UserID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	data := map[string]interface{}{
		"Name":          user.Name,
		"RequestNumber": request.RequestNumber,
		"State":         state,
		"StatusLabel":   label,
		"RequestURL":    fmt.Sprintf("%s/licencas/%s", s.config.Frontend.BaseURL, request.ID),
	}
	body, err := s.renderTemplate(s.getEmailTemplate("status_change").Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}
	return s.sendEmail(user.Email, notification.Title+" - "+request.RequestNumber, body)
}

func (s *NotificationService) ListNotifications(userID uuid.UUID, unreadOnly bool, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifications []models.Notification
	query = utils.ApplySort(query, params, []string{"created_at"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *NotificationService) MarkRead(id, userID uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.First(&notification, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("notification not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := s.db.Save(&notification).Error; err != nil {
			return nil, fmt.Errorf("failed to update notification: %w", err)
		}
	}
	return &notification, nil
}

func (s *NotificationService) MarkAllRead(userID uuid.UUID) (int64, error) {
	res := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to update notifications: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *NotificationService) UnreadCount(userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// Helper methods

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).
			Debug("Email delivery not configured, skipping")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"license_submitted": {
			Subject: "Solicitação enviada",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Solicitação enviada</h2>
	<p>Olá {{.Name}},</p>
	<p>Sua solicitação <strong>{{.RequestNumber}}</strong> foi enviada e já está na fila de processamento.</p>
	<p>Você será avisado a cada mudança de status em cada estado.</p>
	<a href="{{.RequestURL}}">Acompanhar solicitação</a>
	<p>Atenciosamente,<br>Equipe RodoAET</p>
</body>
</html>`,
		},
		"status_change": {
			Subject: "Atualização de status",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Atualização de status</h2>
	<p>Olá {{.Name}},</p>
	{{if .State}}
	<p>A licença da solicitação <strong>{{.RequestNumber}}</strong> para <strong>{{.State}}</strong> está <strong>{{.StatusLabel}}</strong>.</p>
	{{else}}
	<p>Sua solicitação <strong>{{.RequestNumber}}</strong> está <strong>{{.StatusLabel}}</strong>.</p>
	{{end}}
	<a href="{{.RequestURL}}">Ver detalhes</a>
	<p>Atenciosamente,<br>Equipe RodoAET</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}
	return EmailTemplate{
		Subject: "Notificação",
		Body:    "<p>{{.Message}}</p>",
	}
}
