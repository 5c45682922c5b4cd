// internal/receita/client_test.go
package receita

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/models"
)

const validTestCNPJ = "11222333000181"

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient(config.ReceitaConfig{BaseURL: server.URL, TimeoutSecs: 5})
	return client, server
}

func TestLookupActiveCompany(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+validTestCNPJ, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"cnpj": "11222333000181",
			"razao_social": "TRANSPORTADORA EXEMPLO LTDA",
			"nome_fantasia": "TransEx",
			"descricao_situacao_cadastral": "ATIVA",
			"municipio": "SAO PAULO",
			"uf": "SP"
		}`))
	})
	defer server.Close()

	company, err := client.Lookup(context.Background(), validTestCNPJ)
	require.NoError(t, err)
	assert.Equal(t, "TRANSPORTADORA EXEMPLO LTDA", company.LegalName)
	assert.Equal(t, "TransEx", company.TradeName)
	assert.Equal(t, models.RegistrySituationActive, company.RegistrySituation)
	assert.Equal(t, "SP", company.State)
}

func TestLookupStripsFormatting(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+validTestCNPJ, r.URL.Path)
		w.Write([]byte(`{"cnpj": "11222333000181", "descricao_situacao_cadastral": "ATIVA"}`))
	})
	defer server.Close()

	_, err := client.Lookup(context.Background(), "11.222.333/0001-81")
	require.NoError(t, err)
}

func TestLookupNotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.Lookup(context.Background(), validTestCNPJ)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupRejectsInvalidCNPJ(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request should reach the registry for an invalid CNPJ")
	})
	defer server.Close()

	_, err := client.Lookup(context.Background(), "11222333000100")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestLookupServerError(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer server.Close()

	_, err := client.Lookup(context.Background(), validTestCNPJ)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSituationTranslation(t *testing.T) {
	cases := map[string]models.RegistrySituation{
		"ATIVA":    models.RegistrySituationActive,
		"ativa":    models.RegistrySituationActive,
		"BAIXADA":  models.RegistrySituationClosed,
		"SUSPENSA": models.RegistrySituationSuspended,
		"INAPTA":   models.RegistrySituationUnfit,
		"NULA":     models.RegistrySituationUnknown,
		"":         models.RegistrySituationUnknown,
	}
	for input, want := range cases {
		assert.Equal(t, want, translateSituation(input), "situation %q", input)
	}
}
