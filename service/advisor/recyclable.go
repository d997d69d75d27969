package advisor

import "strings"

const recyclableWindow = 50

// LooksRecyclable is a best-effort read of free-text advice: it reports whether
// "yes" appears, case-insensitively, within the first 50 characters. Answers that
// do not lead with a yes/no verdict can be misclassified. Replace it once the
// advisor returns a structured verdict.
func LooksRecyclable(advice string) bool {
	head := []rune(advice)
	if len(head) > recyclableWindow {
		head = head[:recyclableWindow]
	}
	return strings.Contains(strings.ToLower(string(head)), "yes")
}
