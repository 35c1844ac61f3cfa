package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSONSchema returns the record's JSON-Schema as a generic map: every property is required
// and no extra properties are allowed, so a document validates only with the exact shape.
func JSONSchema() map[string]any {
	str := map[string]any{"type": "string"}
	strList := map[string]any{"type": "array", "items": str}

	return object(map[string]any{
		"anagrafica": stringObject("nome", "cognome", "data_nascita", "luogo_nascita",
			"nazionalita", "sesso", "stato_civile"),
		"contatti": object(map[string]any{
			"indirizzo": stringObject("via", "citta", "cap", "provincia", "paese"),
			"telefono":  str,
			"cellulare": str,
			"email":     str,
			"linkedin":  str,
			"sito_web":  str,
			"github":    str,
		}),
		"istruzione": listOf(stringObject("titolo_studio", "istituto", "citta", "paese",
			"data_inizio", "data_fine", "voto", "descrizione", "tesi")),
		"esperienze_lavorative": listOf(object(map[string]any{
			"posizione":          str,
			"azienda":            str,
			"citta":              str,
			"paese":              str,
			"data_inizio":        str,
			"data_fine":          str,
			"descrizione":        str,
			"responsabilita":     strList,
			"risultati_ottenuti": strList,
		})),
		"competenze_tecniche": object(map[string]any{
			"linguaggi_programmazione": strList,
			"framework":                strList,
			"database":                 strList,
			"strumenti":                strList,
			"metodologie":              strList,
			"altre_competenze":         strList,
		}),
		"competenze_linguistiche": listOf(object(map[string]any{
			"lingua":          str,
			"livello_scritto": str,
			"livello_parlato": str,
			"certificazioni":  strList,
		})),
		"competenze_trasversali": strList,
		"certificazioni": listOf(stringObject("nome", "ente_certificatore", "data_ottenimento",
			"data_scadenza", "numero_certificato")),
		"progetti": listOf(object(map[string]any{
			"nome":        str,
			"descrizione": str,
			"ruolo":       str,
			"tecnologie":  strList,
			"link":        str,
		})),
		"pubblicazioni": listOf(object(map[string]any{
			"titolo":             str,
			"autori":             strList,
			"data":               str,
			"rivista_conferenza": str,
			"link":               str,
		})),
		"interessi":                       strList,
		"patente":                         strList,
		"autorizzazione_trattamento_dati": str,
		"disponibilita": object(map[string]any{
			"trasferte":                str,
			"trasferimento":            str,
			"tipo_contratto_preferito": strList,
		}),
	})
}

func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func stringObject(keys ...string) map[string]any {
	props := make(map[string]any, len(keys))
	for _, k := range keys {
		props[k] = map[string]any{"type": "string"}
	}
	return object(props)
}

func listOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(JSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile("record.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// ValidateJSON checks raw JSON against the record schema.
func ValidateJSON(data []byte) error {
	sch, err := compiledSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// Validate checks that r serializes to the exact canonical shape.
func Validate(r Record) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return ValidateJSON(b)
}
