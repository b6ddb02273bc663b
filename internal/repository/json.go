package repository

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

func toJSONB(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal jsonb: %w", err)
	}
	return datatypes.JSON(data), nil
}

func fromJSONB(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("unmarshal jsonb: %w", err)
	}
	return nil
}
