// Package backend defines the installation backend contract and a local
// implementation that records installed packages in SQLite.
package backend

import "github.com/vrsandeep/gitpm/internal/models"

// Record is the backend's view of one installed package.
type Record = models.InstalledPackage

// Backend performs the actual add/remove/resolve of packages. Every
// operation returns immediately with a Request whose completion is observed
// by polling.
type Backend interface {
	List(includeIndirect bool) *Request
	Add(references ...string) *Request
	Remove(names ...string) *Request
	AddAndRemove(add []string, remove []string) *Request
	Resolve() *Request
	RequestCompilation() *Request
}
