package database

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains turns user input into an ILIKE substring pattern. Wildcards in
// the input match literally; queries pair it with ESCAPE '\'.
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
