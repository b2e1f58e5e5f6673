package party

// DisplayName joins first and last name with a single space and appends
// "(@username)". The space is kept even when one of the names is empty, so
// "Ann" with no last name renders as "Ann (@ann)".
func DisplayName(username, first, last string) string {
	var name string
	if first != "" || last != "" {
		name = first + " " + last
	}
	if username != "" {
		name += "(@" + username + ")"
	}
	return name
}
