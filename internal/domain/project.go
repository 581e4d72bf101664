package domain

// Project is a catalog entry. Locked is the static default, overridable at runtime.
type Project struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Locked   bool   `json:"locked"`
}

type LockedProject struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}
