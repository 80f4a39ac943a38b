package models

// Account is a registered user. Usernames are unique case-insensitively;
// the store keys accounts by the lowercased form but keeps the original
// spelling here. Uploads always equals the number of live images whose
// Owner is this username - the store maintains that transactionally.
type Account struct {
	Username   string `json:"username"`
	PasswdHash string `json:"passwd_hash"`
	Avatar     string `json:"avatar,omitempty"`
	Timestamp  int64  `json:"timestamp"`
	Uploads    int    `json:"uploads"`
}

// Image is one uploaded picture. ID is assigned by the store,
// monotonically and never reused. Owner is a weak reference to an
// Account username. Likes and Views carry set semantics (no duplicate
// usernames); Comments is append-only.
type Image struct {
	ID          int       `json:"id"`
	Filename    string    `json:"filename"`
	Owner       string    `json:"owner"`
	Timestamp   int64     `json:"timestamp"`
	Public      bool      `json:"public"`
	Description string    `json:"description"`
	Likes       []string  `json:"likes"`
	Views       []string  `json:"views"`
	Comments    []Comment `json:"comments"`
}

type Comment struct {
	Username  string `json:"username"`
	Comment   string `json:"comment"`
	Timestamp int64  `json:"timestamp"`
}
