package tub

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	indexField = "_index"
	imageField = "cam/image_array"
	angleField = "user/angle"
)

// FrameRecord is one recorded frame. Older tubs list bare frame indexes, newer ones full
// records. Fields this client does not know about are kept as-is so saving never loses data.
type FrameRecord struct {
	Index     int
	ImagePath string
	Angle     *float64

	bare bool
	raw  map[string]json.RawMessage
}

func IndexRecord(index int) FrameRecord {
	return FrameRecord{Index: index, bare: true}
}

func (f FrameRecord) Bare() bool {
	return f.bare
}

func (f *FrameRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var index int
		err := json.Unmarshal(data, &index)
		if err != nil {
			return fmt.Errorf("frame record is neither an index nor an object: %w", err)
		}
		*f = IndexRecord(index)
		return nil
	}

	raw := map[string]json.RawMessage{}
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("failed decoding frame record: %w", err)
	}

	record := FrameRecord{raw: raw}
	indexRaw, ok := raw[indexField]
	if !ok {
		return fmt.Errorf("frame record missing %s", indexField)
	}
	err = json.Unmarshal(indexRaw, &record.Index)
	if err != nil {
		return fmt.Errorf("frame record %s: %w", indexField, err)
	}
	if imageRaw, ok := raw[imageField]; ok {
		err = json.Unmarshal(imageRaw, &record.ImagePath)
		if err != nil {
			return fmt.Errorf("frame record %d %s: %w", record.Index, imageField, err)
		}
	}
	if angleRaw, ok := raw[angleField]; ok {
		err = json.Unmarshal(angleRaw, &record.Angle)
		if err != nil {
			return fmt.Errorf("frame record %d %s: %w", record.Index, angleField, err)
		}
	}

	*f = record
	return nil
}

func (f FrameRecord) MarshalJSON() ([]byte, error) {
	if f.bare {
		return json.Marshal(f.Index)
	}

	out := make(map[string]json.RawMessage, len(f.raw)+3)
	for k, v := range f.raw {
		out[k] = v
	}

	index, err := json.Marshal(f.Index)
	if err != nil {
		return nil, err
	}
	out[indexField] = index

	if f.ImagePath != "" {
		image, err := json.Marshal(f.ImagePath)
		if err != nil {
			return nil, err
		}
		out[imageField] = image
	}
	if f.Angle != nil {
		angle, err := json.Marshal(*f.Angle)
		if err != nil {
			return nil, err
		}
		out[angleField] = angle
	}
	return json.Marshal(out)
}

// ImageName is the image path relative to the tub directory
func (f FrameRecord) ImageName() string {
	if f.ImagePath != "" {
		return f.ImagePath
	}
	return fmt.Sprintf("%d_cam-image_array_.jpg", f.Index)
}
