package models

// User пользователь OpenProject.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Login     string `json:"login"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	Language  string `json:"language"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Membership участие пользователя или группы в проекте.
type Membership struct {
	ID        int    `json:"id"`
	CreatedAt string `json:"createdAt"`
	Links     struct {
		Project   Link   `json:"project"`
		Principal Link   `json:"principal"`
		Roles     []Link `json:"roles"`
	} `json:"_links"`
}

// RoleNames возвращает названия ролей участника.
func (m Membership) RoleNames() []string {
	names := make([]string, 0, len(m.Links.Roles))
	for _, r := range m.Links.Roles {
		names = append(names, r.Title)
	}
	return names
}
