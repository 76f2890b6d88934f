package psk31

// Framer writes additional audio before and after the PSK signal, e.g. a station identification.
type Framer interface {
	LeadIn(out SampleWriter) error
	LeadOut(out SampleWriter) error
}

// NoFraming writes nothing around the PSK signal.
type NoFraming struct{}

func (NoFraming) LeadIn(SampleWriter) error  { return nil }
func (NoFraming) LeadOut(SampleWriter) error { return nil }
