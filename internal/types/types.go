package types

import "time"

// PersonalAlert is a one-shot price alert delivered to its owner by DM.
type PersonalAlert struct {
	InvokerID string  `json:"invoker_id"`
	Price     float64 `json:"price"`
	CreatedAt int64   `json:"created_at"`
}

// ChannelAlert is a one-shot price alert delivered to the channel it was set in.
type ChannelAlert struct {
	ChannelID string  `json:"channel_id"`
	InvokerID string  `json:"invoker_id"`
	Price     float64 `json:"price"`
	CreatedAt int64   `json:"created_at"`
}

func (a PersonalAlert) Created() time.Time {
	return time.Unix(a.CreatedAt, 0).UTC()
}

func (a ChannelAlert) Created() time.Time {
	return time.Unix(a.CreatedAt, 0).UTC()
}
