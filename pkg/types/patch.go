package types

import (
	"encoding/json"
	"sort"
	"time"
)

// ProjectPatch is a partial update of a Project. Nil fields are left alone.
type ProjectPatch struct {
	Name             *string
	Description      *string
	ClearDescription bool
	CategoryID       *string
	// CategoryValues replaces the whole map when non-nil.
	CategoryValues CategoryValues

	// Ignored lists envelope keys that were unknown or ill-typed.
	Ignored []string
}

// ParsePatch builds a ProjectPatch from a JSON update envelope such as
// {"name": "x", "description": null, "categoryValues": {...}}.
// Unknown keys and values of the wrong type are skipped and recorded in
// Ignored; input that is not a JSON object yields an empty patch.
func ParsePatch(data []byte) ProjectPatch {
	var patch ProjectPatch
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		patch.Ignored = []string{"<envelope>"}
		return patch
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := obj[key]
		ok := false
		switch key {
		case "name":
			if s, valid := decodeString(raw); valid {
				patch.Name = &s
				ok = true
			}
		case "description":
			if string(raw) == "null" {
				patch.ClearDescription = true
				ok = true
				break
			}
			if s, valid := decodeString(raw); valid {
				patch.Description = &s
				ok = true
			}
		case "categoryId":
			if s, valid := decodeString(raw); valid {
				patch.CategoryID = &s
				ok = true
			}
		case "categoryValues":
			if cv, valid := parseCategoryValues(raw); valid {
				patch.CategoryValues = cv
				ok = true
			}
		}
		if !ok {
			patch.Ignored = append(patch.Ignored, key)
		}
	}
	return patch
}

// decodeString accepts a JSON string and rejects everything else, null included.
func decodeString(raw json.RawMessage) (string, bool) {
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil || s == nil {
		return "", false
	}
	return *s, true
}

// parseCategoryValues keeps the object-of-objects-of-strings subset of raw.
func parseCategoryValues(raw json.RawMessage) (CategoryValues, bool) {
	var cats map[string]json.RawMessage
	if err := json.Unmarshal(raw, &cats); err != nil || cats == nil {
		return nil, false
	}
	out := make(CategoryValues, len(cats))
	for catID, catRaw := range cats {
		var vars map[string]json.RawMessage
		if err := json.Unmarshal(catRaw, &vars); err != nil || vars == nil {
			continue
		}
		values := make(map[string]string, len(vars))
		for varID, valRaw := range vars {
			if s, valid := decodeString(valRaw); valid {
				values[varID] = s
			}
		}
		out[catID] = values
	}
	return out, true
}

// Apply writes the patch onto p and always refreshes UpdatedAt.
func (pp ProjectPatch) Apply(p *Project, now time.Time) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.ClearDescription {
		p.Description = nil
	} else if pp.Description != nil {
		d := *pp.Description
		p.Description = &d
	}
	if pp.CategoryID != nil {
		p.CategoryID = *pp.CategoryID
	}
	if pp.CategoryValues != nil {
		p.CategoryValues = pp.CategoryValues.Clone()
	}
	p.UpdatedAt = Timestamp(now)
}
