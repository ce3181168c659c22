package service

import (
	"auticonnect/internal/config"
	"encoding/json"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	integerPattern = regexp.MustCompile(`-?\d+`)
	// "0-100", "0 – 100", "0 a 100", "0 até 100", "0 to 100"
	rangePattern   = regexp.MustCompile(`(?i)\d+(?:\s*[-–]\s*|\s+(?:a|até|to)\s+)\d+`)
	keywordPattern = regexp.MustCompile(`(?i)urg(?:e|ê)ncia|urgency`)
)

// urgencyKeys are accepted in the scorer's JSON answer, in lookup order
var urgencyKeys = []string{"urgencia", "urgência", "urgency"}

// ParseUrgency extracts an urgency score from generated text. A JSON object with an urgency field wins.
// Otherwise scale ranges such as "0-100" are ignored and the first integer after an urgency keyword is
// used, falling back to the last integer in the text. The result is clamped to [0, 100]. ok is false
// when nothing usable was found.
func ParseUrgency(text string) (urgency int, ok bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}

	if v, found := urgencyFromJSON(trimmed); found {
		return v, true
	}

	prose := rangePattern.ReplaceAllString(trimmed, " ")
	if match, found := integerAfterKeyword(prose); found {
		return clampInteger(match), true
	}

	matches := integerPattern.FindAllString(prose, -1)
	if len(matches) == 0 {
		return 0, false
	}
	return clampInteger(matches[len(matches)-1]), true
}

func integerAfterKeyword(text string) (string, bool) {
	for _, loc := range keywordPattern.FindAllStringIndex(text, -1) {
		if match := integerPattern.FindString(text[loc[1]:]); match != "" {
			return match, true
		}
	}
	return "", false
}

// clampInteger converts a matched integer, saturating values too large for int
func clampInteger(digits string) int {
	n, err := strconv.Atoi(digits)
	if errors.Is(err, strconv.ErrRange) {
		if strings.HasPrefix(digits, "-") {
			return 0
		}
		return 100
	}
	return config.ClampUrgency(n)
}

func clampFloat(v float64) int {
	switch {
	case v >= 100:
		return 100
	case v <= 0:
		return 0
	}
	return int(math.Round(v))
}

func urgencyFromJSON(text string) (int, bool) {
	start := strings.Index(text, "{")
	if start < 0 {
		return 0, false
	}
	end := strings.LastIndex(text, "}")
	candidate := text[start:]
	if end > start {
		candidate = text[start : end+1]
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return 0, false
	}

	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil {
		return 0, false
	}

	for _, key := range urgencyKeys {
		switch v := fields[key].(type) {
		case float64:
			if math.IsNaN(v) {
				continue
			}
			return clampFloat(v), true
		case string:
			s := strings.TrimSpace(v)
			if integerPattern.MatchString(s) && integerPattern.FindString(s) == s {
				return clampInteger(s), true
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
				return clampFloat(f), true
			}
		}
	}
	return 0, false
}
