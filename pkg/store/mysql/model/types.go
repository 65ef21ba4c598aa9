package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"nodemonitor/pkg/earnings"
)

// ArchivedYears is the JSON column holding closed tracking years.
type ArchivedYears []earnings.ArchivedYear

// Scan implements sql.Scanner interface
func (a *ArchivedYears) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal ArchivedYears value: %v", value)
	}
	result := make([]earnings.ArchivedYear, 0)
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*a = ArchivedYears(result)
	return nil
}

// Value implements driver.Valuer interface
func (a ArchivedYears) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
