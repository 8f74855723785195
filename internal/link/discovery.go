package link

import (
	"html"
	"regexp"
	"strings"

	"codeberg.org/mutker/meterdash/internal/device"
)

const resultsHeader = "Results:"

var candidatePattern = regexp.MustCompile(`data-address="([^"]*)"[^>]*>([^<]*)</a>`)

// Candidate is one device found by a discovery scan.
type Candidate struct {
	Address string
	Name    string
}

// Discovery is the outcome of one scan. An empty Devices list with Failed
// unset is a successful scan that found nothing.
type Discovery struct {
	Channel device.Channel
	Payload string
	Devices []Candidate
	Failed  bool
}

// ParseDiscovery extracts candidates from a scan-result payload. Payloads
// that do not start with the results header are scan failures; the raw text
// is kept for display.
func ParseDiscovery(ch device.Channel, payload string) Discovery {
	result := Discovery{
		Channel: ch,
		Payload: payload,
		Devices: []Candidate{},
	}

	if !strings.HasPrefix(strings.TrimSpace(payload), resultsHeader) {
		result.Failed = true
		return result
	}

	for _, match := range candidatePattern.FindAllStringSubmatch(payload, -1) {
		result.Devices = append(result.Devices, Candidate{
			Address: html.UnescapeString(match[1]),
			Name:    html.UnescapeString(strings.TrimSpace(match[2])),
		})
	}

	return result
}
