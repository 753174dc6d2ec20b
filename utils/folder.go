package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const unknownFolder = "unknown"

var folderNameStrip = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// reserved device names on windows, rejected so archives stay portable
var reservedFolderNames = map[string]bool{
	"CON": true, "AUX": true, "COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "PRN": true, "NUL": true,
}

// SafeFolderName derives a filesystem-safe media folder name from a profile
// name. Accents are folded to ASCII, whitespace becomes '_', and anything
// outside [A-Za-z0-9_.-] is dropped. Returns "unknown" when nothing is left.
func SafeFolderName(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r <= unicode.MaxASCII && !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	ascii := strings.NewReplacer("/", " ", "\\", " ").Replace(b.String())
	cleaned := folderNameStrip.ReplaceAllString(strings.Join(strings.Fields(ascii), "_"), "")
	cleaned = strings.Trim(cleaned, "._")

	if cleaned == "" {
		return unknownFolder
	}
	if isReservedFolderName(cleaned) {
		cleaned = "_" + cleaned
	}
	return cleaned
}

// IsSafeFolderName reports whether folder can be joined under the media root
// as a single path element: the SafeFolderName alphabet [A-Za-z0-9_.-], not
// all dots, and no reserved device name.
func IsSafeFolderName(folder string) bool {
	if folder == "" || strings.Trim(folder, ".") == "" {
		return false
	}
	if folderNameStrip.MatchString(folder) {
		return false
	}
	return !isReservedFolderName(folder)
}

func isReservedFolderName(folder string) bool {
	return reservedFolderNames[strings.ToUpper(strings.SplitN(folder, ".", 2)[0])]
}
