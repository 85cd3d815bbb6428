// Package digest defines the core domain types, collaborator interfaces,
// and error taxonomy shared by the reading-digest pipeline. Concrete
// implementations live in sibling packages (source, extract, summarize,
// notify, storage, archive, inbox) and are wired together in cmd.
package digest
