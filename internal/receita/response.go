// internal/receita/response.go
package receita

import (
	"strings"

	"github.com/rodoaet/aet-backend/internal/models"
)

type companyResponse struct {
	CNPJ               string `json:"cnpj"`
	LegalName          string `json:"razao_social"`
	TradeName          string `json:"nome_fantasia"`
	LegalNature        string `json:"natureza_juridica"`
	CompanySize        string `json:"porte"`
	BusinessStartDate  string `json:"data_inicio_atividade"`
	RegistrationStatus string `json:"descricao_situacao_cadastral"`

	AddressStreetName   string `json:"logradouro"`
	AddressNumber       string `json:"numero"`
	AddressNeighborhood string `json:"bairro"`
	AddressCity         string `json:"municipio"`
	AddressState        string `json:"uf"`
	AddressZip          string `json:"cep"`
}

// Company is the slice of the public registry record this service cares
// about.
type Company struct {
	CNPJ              string
	LegalName         string
	TradeName         string
	RegistrySituation models.RegistrySituation
	City              string
	State             string
}

func (r *companyResponse) toCompany() *Company {
	return &Company{
		CNPJ:              r.CNPJ,
		LegalName:         r.LegalName,
		TradeName:         r.TradeName,
		RegistrySituation: translateSituation(r.RegistrationStatus),
		City:              r.AddressCity,
		State:             r.AddressState,
	}
}

func translateSituation(situation string) models.RegistrySituation {
	switch strings.ToUpper(situation) {
	case "ATIVA":
		return models.RegistrySituationActive
	case "BAIXADA":
		return models.RegistrySituationClosed
	case "SUSPENSA":
		return models.RegistrySituationSuspended
	case "INAPTA":
		return models.RegistrySituationUnfit
	default:
		return models.RegistrySituationUnknown
	}
}
