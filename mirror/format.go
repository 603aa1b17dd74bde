package mirror

import "strings"

// AuthorName composes the display form of a chat author. When the display
// name is just a recased login it stands alone; otherwise the login is
// appended in parentheses so moderators can tell lookalike names apart.
func AuthorName(displayName, login string) string {
	if strings.ToLower(displayName) == login {
		return displayName
	}
	return displayName + " (" + login + ")"
}

// RenderContent builds the mirrored post body: backtick-quoted author name
// followed by the backtick-quoted message text. The quoting keeps Discord
// from interpreting markdown or mentions inside chat text.
func RenderContent(displayName, login, text string) string {
	return "``" + AuthorName(displayName, login) + "``: ``" + text + "``"
}
