package mytypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LapTimes is stored as a json array in a jsonb column.
type LapTimes []float64

func (h *LapTimes) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*h = nil
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported type %T for LapTimes", value)
	}
}

func (h LapTimes) Value() (driver.Value, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h)
}
