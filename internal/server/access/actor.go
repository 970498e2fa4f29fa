// Package access resolves who is making a request and what they may do.
// Every service operation receives the Actor explicitly.
package access

import "github.com/dmitrijs2005/studymate/internal/server/models"

// SystemName is recorded as the creator of anything the system actor makes.
const SystemName = "system"

// Actor is the identity a request runs as.
type Actor struct {
	Username string
	Role     models.Role
	system   bool
}

func User(username string, role models.Role) Actor {
	return Actor{Username: username, Role: role}
}

// Anonymous is the zero actor: no username, no capabilities.
func Anonymous() Actor {
	return Actor{}
}

// System is the administrative actor used by command-line tooling. It has
// admin capabilities but no username, so it cannot own relationships.
func System() Actor {
	return Actor{Role: models.RoleAdmin, system: true}
}

func (a Actor) Authenticated() bool {
	return a.Username != ""
}

func (a Actor) IsSystem() bool {
	return a.system
}

func (a Actor) IsAdmin() bool {
	return a.system || (a.Authenticated() && a.Role == models.RoleAdmin)
}

// CanModerate reports whether the actor may remove content by author.
func (a Actor) CanModerate(author string) bool {
	return a.IsAdmin() || (a.Authenticated() && a.Username == author)
}

// Name is the username, or SystemName for the system actor.
func (a Actor) Name() string {
	if a.system {
		return SystemName
	}
	return a.Username
}
