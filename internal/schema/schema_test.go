package schema

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordValidates(t *testing.T) {
	require.NoError(t, Validate(New()))
	// zero value marshals the same way as New
	require.NoError(t, Validate(Record{}))

	a, err := json.Marshal(Record{})
	require.NoError(t, err)
	b, err := json.Marshal(New())
	require.NoError(t, err)
	assert.JSONEq(t, string(b), string(a))
	assert.NotContains(t, string(a), "null")
}

func TestWireKeys(t *testing.T) {
	m, err := New().ToMap()
	require.NoError(t, err)

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"anagrafica", "autorizzazione_trattamento_dati", "certificazioni", "competenze_linguistiche",
		"competenze_tecniche", "competenze_trasversali", "contatti", "disponibilita",
		"esperienze_lavorative", "interessi", "istruzione", "patente", "progetti", "pubblicazioni",
	}, keys)

	contatti := m["contatti"].(map[string]any)
	assert.Contains(t, contatti, "indirizzo")
	assert.Contains(t, contatti["indirizzo"].(map[string]any), "cap")
}

func TestValidateRejectsWrongShape(t *testing.T) {
	m, err := New().ToMap()
	require.NoError(t, err)

	m["extra"] = "x"
	b, _ := json.Marshal(m)
	assert.Error(t, ValidateJSON(b))

	delete(m, "extra")
	delete(m["anagrafica"].(map[string]any), "nome")
	b, _ = json.Marshal(m)
	assert.Error(t, ValidateJSON(b))
}

func TestFilledDoesNotAlias(t *testing.T) {
	r := Record{Interests: []string{"chess"}}
	f := r.Filled()
	f.Interests[0] = "go"
	assert.Equal(t, "chess", r.Interests[0])

	r = Record{Experience: []Experience{{Company: "ACME"}}}
	f = r.Filled()
	require.NotNil(t, f.Experience[0].Responsibilities)
	assert.Nil(t, r.Experience[0].Responsibilities)
}
