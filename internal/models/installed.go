package models

import "time"

// InstalledPackage is the installation backend's record of one package.
// ID is the full reference the package was installed from, e.g.
// "com.acme.tool@1.2.0" or "com.acme.tool@https://github.com/acme/tool.git#v1.2.0".
type InstalledPackage struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Version     string    `json:"version"`
	Source      string    `json:"source"`
	InstalledAt time.Time `json:"installed_at"`
}

// Operation is one entry of the install/update/remove history.
type Operation struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"` // "import", "remove", "update"
	Target     string    `json:"target"`
	References []string  `json:"references"`
	Status     string    `json:"status"` // "success", "failed", "rejected"
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Operation kinds and statuses.
const (
	OperationImport = "import"
	OperationRemove = "remove"
	OperationUpdate = "update"

	OperationSuccess  = "success"
	OperationFailed   = "failed"
	OperationRejected = "rejected"
)
