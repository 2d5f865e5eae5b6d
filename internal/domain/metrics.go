package domain

// Metrics records configuration lifecycle observations.
type Metrics interface {
	RecordConfigLoad(err error)
	RecordPortResolution(source PortSource)
	RecordReload(source ConfigUpdateSource, err error)
	SetConfigRevision(revision uint64)
}
