package conversation

// Brief describes the trip the client persona is asking about and who it is writing to.
type Brief struct {
	CompanyName     string `json:"company_name"`
	Country         string `json:"country"`
	CounterpartName string `json:"counterpart_name"`
}

// Counterpart returns the display name of the other side, "Wandero" when unset.
func (b Brief) Counterpart() string {
	if b.CounterpartName == "" {
		return "Wandero"
	}
	return b.CounterpartName
}

// Label names a sender the way prompts and transcripts show it.
func (b Brief) Label(s Sender) string {
	if s == SenderCounterpart {
		return b.Counterpart()
	}
	return s.String()
}
