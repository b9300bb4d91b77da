package assign

// Action is the terminal outcome recorded for a submission.
type Action string

const (
	ActionUnset      Action = ""
	ActionNoFile     Action = "no_file"
	ActionCopied     Action = "copied"
	ActionDuplicated Action = "duplicated"
	ActionConflict   Action = "conflict"
	ActionGenerated  Action = "generated"
)

// Actions lists the five terminal actions.
var Actions = []Action{ActionNoFile, ActionCopied, ActionDuplicated, ActionConflict, ActionGenerated}

// Valid reports whether a is one of the terminal actions.
func (a Action) Valid() bool {
	for _, v := range Actions {
		if a == v {
			return true
		}
	}
	return false
}

// rank orders actions so a submission touched by several teams keeps the
// one needing the most attention.
func (a Action) rank() int {
	switch a {
	case ActionConflict:
		return 4
	case ActionDuplicated:
		return 3
	case ActionCopied, ActionGenerated:
		return 2
	case ActionNoFile:
		return 1
	default:
		return 0
	}
}

// Record is the assignment state of one submission folder.
type Record struct {
	Folder    string
	Teams     []string
	TeamNames []string
	Members   []string
	Action    Action
}

func (r *Record) addTeam(label, name, members string) {
	r.Teams = append(r.Teams, label)
	r.TeamNames = append(r.TeamNames, name)
	r.Members = append(r.Members, members)
}

// setAction stores a unless the record already holds a higher-ranked action.
func (r *Record) setAction(a Action) {
	if a.rank() >= r.Action.rank() {
		r.Action = a
	}
}
