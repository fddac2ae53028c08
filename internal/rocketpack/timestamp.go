package rocketpack

import "time"

// Timestamp64 is signed whole seconds since the Unix epoch, the wire shape
// used by the AgreementPublicKey/AgreementPrivateKey creation times.
type Timestamp64 struct {
	Seconds int64
}

// NewTimestamp64 truncates t to whole seconds.
func NewTimestamp64(t time.Time) Timestamp64 {
	return Timestamp64{Seconds: t.Unix()}
}

// Time reconstructs a UTC time.Time at second precision.
func (t Timestamp64) Time() time.Time { return time.Unix(t.Seconds, 0).UTC() }

// Timestamp96 adds nanosecond precision to Timestamp64.
type Timestamp96 struct {
	Seconds int64
	Nanos   uint32
}

// NewTimestamp96 captures t at nanosecond precision.
func NewTimestamp96(t time.Time) Timestamp96 {
	return Timestamp96{Seconds: t.Unix(), Nanos: uint32(t.Nanosecond())}
}

// Time reconstructs a UTC time.Time at nanosecond precision.
func (t Timestamp96) Time() time.Time { return time.Unix(t.Seconds, int64(t.Nanos)).UTC() }
