package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/starford/leafnote/internal/apperr"
	"github.com/starford/leafnote/internal/models"
)

// LegacyFile is the conventional name of the single-document store used
// before pages existed.
const LegacyFile = "entries.json"

// LoadLegacy reads a pre-pages entries.json into a Page.
func LoadLegacy(path string) (models.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Page{}, fmt.Errorf("persist: read legacy %s: %w", path, err)
	}
	return DecodeLegacy(data)
}

// DecodeLegacy accepts both historical layouts of entries.json:
//
//	{"list": [{"text": "...", "is_checked": false}]}
//	{"list": {"<text>": false}}
//
// The earliest builds also wrote map values as {"is_checked": bool}.
// Map layouts carry no order, so notes are sorted by text.
func DecodeLegacy(data []byte) (models.Page, error) {
	var doc struct {
		List json.RawMessage `json:"list"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.Page{}, fmt.Errorf("%w: legacy entries: %v", apperr.ErrInvalidPersistedData, err)
	}
	raw := bytes.TrimSpace(doc.List)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return models.Page{Notes: []models.Note{}}, nil
	}

	switch raw[0] {
	case '[':
		return models.DecodePage(string(data))
	case '{':
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return models.Page{}, fmt.Errorf("%w: legacy entries: %v", apperr.ErrInvalidPersistedData, err)
		}
		texts := make([]string, 0, len(entries))
		for text := range entries {
			texts = append(texts, text)
		}
		sort.Strings(texts)

		notes := make([]models.Note, 0, len(entries))
		for _, text := range texts {
			checked, err := legacyChecked(entries[text])
			if err != nil {
				return models.Page{}, fmt.Errorf("%w: legacy entry %q: %v", apperr.ErrInvalidPersistedData, text, err)
			}
			notes = append(notes, models.Note{Text: text, Checked: checked})
		}
		return models.Page{Notes: notes}, nil
	default:
		return models.Page{}, fmt.Errorf("%w: legacy entries: unexpected list type", apperr.ErrInvalidPersistedData)
	}
}

func legacyChecked(raw json.RawMessage) (bool, error) {
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var flags struct {
		IsChecked bool `json:"is_checked"`
	}
	if err := json.Unmarshal(raw, &flags); err != nil {
		return false, err
	}
	return flags.IsChecked, nil
}
