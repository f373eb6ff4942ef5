package models

import (
	"encoding/json"
	"strings"

	"taskadmin/internal/domain/errors"
)

// FlexID is an integer id that also accepts its decimal string form, as
// browser forms tend to send it.
type FlexID int64

func (id *FlexID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n = json.Number(strings.TrimSpace(s))
	}
	v, err := n.Int64()
	if err != nil {
		return errors.ErrInvalidAssignerID
	}
	*id = FlexID(v)
	return nil
}
