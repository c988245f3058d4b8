package teams

// NodeKind distinguishes the two kinds of tree nodes
type NodeKind string

const (
	KindFolder NodeKind = "folder"
	KindItem   NodeKind = "item"
)

// TreeNode is a node in a team's hierarchy. Folders carry a name and an
// ordered child list; items carry a reference to an analysis and never have
// children. Every id is unique within one team's tree. Persisted nodes have
// server-assigned ids; folders created while staging a reorder carry a
// temporary client id until commit.
type TreeNode struct {
	ID       string      `json:"id"`
	Kind     NodeKind    `json:"kind"`
	Name     string      `json:"name,omitempty"`     // folder only
	ItemRef  string      `json:"itemRef,omitempty"`  // item only, analysis id
	Children []*TreeNode `json:"children,omitempty"` // folder only, order significant
}

// IsFolder reports whether the node is a folder
func (n *TreeNode) IsFolder() bool {
	return n != nil && n.Kind == KindFolder
}

// Role is a user's role within a team
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Team is one team's slice of server state: identity, membership and the
// folder/item forest
type Team struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Members map[string]Role `json:"members,omitempty"` // user id -> role
	Tree    []*TreeNode     `json:"tree,omitempty"`
}

// CurrentUser is the identity the server bound this session to
type CurrentUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Wire payloads decoded from stream event data

type initPayload struct {
	Teams []*Team      `json:"teams"`
	User  *CurrentUser `json:"user"`
}

type teamCreatedPayload struct {
	Team *Team `json:"team"`
}

type teamDeletedPayload struct {
	TeamID string `json:"teamId"`
}

type structureUpdatedPayload struct {
	TeamID string      `json:"teamId"`
	Tree   []*TreeNode `json:"tree"`
}

type folderCreatedPayload struct {
	TeamID   string `json:"teamId"`
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
	ParentID string `json:"parentFolderId,omitempty"`
	Index    int    `json:"index"`
}

type folderUpdatedPayload struct {
	TeamID   string `json:"teamId"`
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
}

type folderDeletedPayload struct {
	TeamID   string `json:"teamId"`
	FolderID string `json:"folderId"`
}
