package parser

import "strings"

// communicationMarkers are the phrases that turn a cell into a communication slot.
var communicationMarkers = []string{"Час общения", "Разговоры о важном"}

// HasCommunicationMarker reports whether text contains any communication marker.
func HasCommunicationMarker(text string) bool {
	for _, m := range communicationMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// ClassifyCommunication decides whether a cell is a communication slot.
// It returns the detail fragments to keep: for a communication slot every
// marker-bearing fragment is dropped, otherwise details are returned as is.
// The returned slice is never nil.
func ClassifyCommunication(cellText, subject string, details []string) (bool, []string) {
	isComm := HasCommunicationMarker(cellText) || HasCommunicationMarker(subject)
	if !isComm {
		for _, d := range details {
			if HasCommunicationMarker(d) {
				isComm = true
				break
			}
		}
	}

	kept := make([]string, 0, len(details))
	for _, d := range details {
		if isComm && HasCommunicationMarker(d) {
			continue
		}
		kept = append(kept, d)
	}
	return isComm, kept
}
