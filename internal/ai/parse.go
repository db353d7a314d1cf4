// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// maxFallbackTags caps tags recovered by the quoted-string fallback.
const maxFallbackTags = 5

var (
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	quotedPattern = regexp.MustCompile(`"([^"\n]+)"`)
)

// errNoJSONObject is returned when a reply holds no JSON object.
var errNoJSONObject = errors.New("no JSON object in response")

// ParseTags extracts a tag list from model output. It parses the first
// [...] span as a JSON string array; failing that it takes up to five quoted
// strings; failing that it returns an empty slice.
func ParseTags(raw string) []string {
	if span := arrayPattern.FindString(raw); span != "" {
		var tags []string
		if err := json.Unmarshal([]byte(span), &tags); err == nil {
			return cleanTags(tags, 0)
		}
	}

	var quoted []string
	for _, m := range quotedPattern.FindAllStringSubmatch(raw, -1) {
		quoted = append(quoted, m[1])
	}
	return cleanTags(quoted, maxFallbackTags)
}

func cleanTags(in []string, limit int) []string {
	out := []string{}
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// decodeObject unmarshals the outermost {...} span of raw into out. Models
// often wrap JSON in prose or code fences.
func decodeObject(raw string, out any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return errNoJSONObject
	}
	return json.Unmarshal([]byte(raw[start:end+1]), out)
}

// looseString accepts a JSON string, number, string array, or null. Arrays
// are joined with ", ".
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var parts []string
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*s = looseString(strings.Join(cleanTags(parts, 0), ", "))
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*s = looseString(strconv.FormatInt(i, 10))
		return nil
	}
	*s = looseString(n.String())
	return nil
}
