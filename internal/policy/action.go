package policy

// Action identifie une opération soumise au contrôle d'accès.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
	ActionExport Action = "export"
)

func (a Action) String() string { return string(a) }
