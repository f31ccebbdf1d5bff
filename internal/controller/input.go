package controller

// PendingInput is the state of one text-entry form (new note, new page)
// while it is visible: the text typed so far and the last validation error.
type PendingInput struct {
	Text string
	Err  error
}

// Reset clears the form, e.g. when it is opened or closed.
func (p *PendingInput) Reset() {
	p.Text = ""
	p.Err = nil
}

// Submit runs cmd with the pending text. On success the form is cleared and
// true is returned; on failure the error is kept for display and the text
// is left for correction.
func (p *PendingInput) Submit(cmd func(string) error) bool {
	if err := cmd(p.Text); err != nil {
		p.Err = err
		return false
	}
	p.Reset()
	return true
}

// Warning returns the message to show under the form, or "".
func (p *PendingInput) Warning() string {
	if p.Err == nil {
		return ""
	}
	return "Invalid: " + p.Err.Error()
}
