package dto

import (
	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/entity"
	"time"
)

// NotifyRequest is the DTO for sending a notification immediately.
type NotifyRequest struct {
	Kind       string            `json:"kind" validate:"required"`
	Channels   []string          `json:"channels" validate:"omitempty,dive,required"`
	Phone      string            `json:"phone" validate:"required_without_all=Email LineUserID"`
	Email      string            `json:"email"`
	LineUserID string            `json:"line_user_id"`
	Name       string            `json:"name"`
	Payload    map[string]string `json:"payload" validate:"required"`
	DedupKey   string            `json:"dedup_key" validate:"omitempty,max=200"`
}

// ToEntity converts the DTO into a NotificationRequest.
func (r NotifyRequest) ToEntity() entity.NotificationRequest {
	channels := make([]constant.Channel, 0, len(r.Channels))
	for _, c := range r.Channels {
		channels = append(channels, constant.Channel(c))
	}
	return entity.NotificationRequest{
		Kind:              constant.Kind(r.Kind),
		ChannelPreference: channels,
		Destination: entity.Destination{
			Phone:      r.Phone,
			Email:      r.Email,
			LineUserID: r.LineUserID,
			Name:       r.Name,
		},
		Payload:  r.Payload,
		DedupKey: r.DedupKey,
	}
}

// SkipResponse explains why a channel was not used.
type SkipResponse struct {
	Channel string `json:"channel"`
	Reason  string `json:"reason"`
}

// NotifyResponse is the DTO returned after a notification request.
type NotifyResponse struct {
	Status    string         `json:"status"`
	DedupKey  string         `json:"dedup_key"`
	Channel   string         `json:"channel,omitempty"`
	MessageID string         `json:"message_id,omitempty"`
	AttemptID uint           `json:"attempt_id,omitempty"`
	Skipped   []SkipResponse `json:"skipped,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// ToNotifyResponse converts an Outcome to a NotifyResponse DTO.
func ToNotifyResponse(dedupKey string, o service.Outcome) NotifyResponse {
	resp := NotifyResponse{
		Status:    string(o.Status),
		DedupKey:  dedupKey,
		Channel:   string(o.Channel),
		MessageID: o.MessageID,
		AttemptID: o.AttemptID,
		Error:     o.LastError,
	}
	for _, s := range o.Skipped {
		resp.Skipped = append(resp.Skipped, SkipResponse{Channel: string(s.Channel), Reason: s.Reason})
	}
	return resp
}

// UsageResponse is the DTO for the quota usage of one channel.
type UsageResponse struct {
	Channel       string  `json:"channel"`
	DailyCount    int     `json:"daily_count"`
	DailyCap      int     `json:"daily_cap"`
	MonthlyCount  int     `json:"monthly_count"`
	MonthlyCap    int     `json:"monthly_cap"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// ToUsageResponse converts a UsageSnapshot to a UsageResponse DTO.
func ToUsageResponse(u service.UsageSnapshot) UsageResponse {
	return UsageResponse{
		Channel:       string(u.Channel),
		DailyCount:    u.DailyCount,
		DailyCap:      u.DailyCap,
		MonthlyCount:  u.MonthlyCount,
		MonthlyCap:    u.MonthlyCap,
		EstimatedCost: u.EstimatedCost,
	}
}

// AttemptResponse is the DTO for one delivery attempt.
type AttemptResponse struct {
	ID                uint      `json:"id"`
	DedupKey          string    `json:"dedup_key"`
	Kind              string    `json:"kind"`
	Channel           string    `json:"channel"`
	Destination       string    `json:"destination"`
	Subject           *string   `json:"subject,omitempty"`
	Body              string    `json:"body"`
	Status            string    `json:"status"`
	ProviderMessageID *string   `json:"provider_message_id,omitempty"`
	ErrorReason       *string   `json:"error_reason,omitempty"`
	Tries             int       `json:"tries"`
	Timestamp         time.Time `json:"timestamp"`
}

// ToAttemptResponseList converts attempts to AttemptResponse DTOs.
func ToAttemptResponseList(attempts []*entity.DeliveryAttempt) []AttemptResponse {
	list := make([]AttemptResponse, len(attempts))
	for i, a := range attempts {
		list[i] = AttemptResponse{
			ID:                a.ID,
			DedupKey:          a.DedupKey,
			Kind:              string(a.Kind),
			Channel:           string(a.Channel),
			Destination:       a.Destination,
			Subject:           a.Subject,
			Body:              a.RenderedBody,
			Status:            string(a.Status),
			ProviderMessageID: a.ProviderMessageID,
			ErrorReason:       a.ErrorReason,
			Tries:             a.Tries,
			Timestamp:         a.Timestamp,
		}
	}
	return list
}

// StatResponse is the DTO for delivery counts of one kind on one channel.
type StatResponse struct {
	Kind    string `json:"kind"`
	Channel string `json:"channel"`
	Sent    int64  `json:"sent"`
	Failed  int64  `json:"failed"`
}

// ToStatResponseList converts DeliveryStats to StatResponse DTOs.
func ToStatResponseList(stats []service.DeliveryStat) []StatResponse {
	list := make([]StatResponse, len(stats))
	for i, s := range stats {
		list[i] = StatResponse{Kind: string(s.Kind), Channel: string(s.Channel), Sent: s.Sent, Failed: s.Failed}
	}
	return list
}

// ScanResponse is the DTO for the result of a reminder scan.
type ScanResponse struct {
	Due         int    `json:"due"`
	Sent        int    `json:"sent"`
	AlreadySent int    `json:"already_sent"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
	Error       string `json:"error,omitempty"`
}

// ToScanResponse converts a ScanResult to a ScanResponse DTO.
func ToScanResponse(r service.ScanResult) ScanResponse {
	return ScanResponse{Due: r.Due, Sent: r.Sent, AlreadySent: r.AlreadySent, Skipped: r.Skipped, Failed: r.Failed}
}

// SchedulerStatusResponse is the DTO for the scheduler status.
type SchedulerStatusResponse struct {
	Running       bool          `json:"running"`
	Interval      string        `json:"interval"`
	LastCheckedAt *time.Time    `json:"last_checked_at,omitempty"`
	LastResult    *ScanResponse `json:"last_result,omitempty"`
	LastError     string        `json:"last_error,omitempty"`
}

// ToSchedulerStatusResponse converts a SchedulerStatus to its DTO.
func ToSchedulerStatusResponse(s service.SchedulerStatus) SchedulerStatusResponse {
	resp := SchedulerStatusResponse{
		Running:       s.Running,
		Interval:      s.Interval.String(),
		LastCheckedAt: s.LastCheckedAt,
		LastError:     s.LastError,
	}
	if s.LastResult != nil {
		r := ToScanResponse(*s.LastResult)
		resp.LastResult = &r
	}
	return resp
}

// ErrorResponse is the DTO for error replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
