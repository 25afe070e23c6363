package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Membership labels produced by FormatSubscriptionType.
const (
	MembershipFree         = "Free"
	MembershipPro          = "Pro"
	MembershipFreeTrial    = "Free Trial"
	MembershipProTrial     = "Pro Trial"
	MembershipTeam         = "Team"
	MembershipEnterprise   = "Enterprise"
	MembershipActiveSub    = "Active Subscription"
	MembershipNoToken      = "No Token Found"
	MembershipAPIError     = "API Error - Auth Failed"
	MembershipNotFound     = "Not found"
	membershipLegacyPlan   = "Unknown"
	membershipLegacyStatus = "unknown"
)

// Trial status texts.
const (
	TrialNotOnTrial       = "Not on trial"
	TrialNotApplicable    = "Not applicable"
	TrialChecking         = "Trial (checking...)"
	TrialCheckingShort    = "Checking..."
	TrialExpired          = "Trial expired"
	TrialExpiredShort     = "Expired"
	TrialUnavailable      = "Unable to fetch live data"
	TrialUnavailableShort = "Unable to fetch"
)

var membershipLabels = map[string]string{
	"pro":        MembershipPro,
	"free_trial": MembershipFreeTrial,
	"pro_trial":  MembershipProTrial,
	"team":       MembershipTeam,
	"enterprise": MembershipEnterprise,
}

// legacyPlanOrder lists plan nickname fragments from most to least specific.
var legacyPlanOrder = []string{"pro_trial", "free_trial", "pro", "team", "enterprise"}

// Profile is the subscription profile returned by the remote endpoint. Both
// the current (membershipType/subscriptionStatus) and the legacy
// (subscription.plan/status) shapes are decoded; pointer fields distinguish
// absent from empty.
type Profile struct {
	MembershipType       *string             `json:"membershipType,omitempty"`
	SubscriptionStatus   *string             `json:"subscriptionStatus,omitempty"`
	DaysRemainingOnTrial *float64            `json:"daysRemainingOnTrial,omitempty"`
	Subscription         *LegacySubscription `json:"subscription,omitempty"`
}

// LegacySubscription is the nested plan/status structure of older responses.
type LegacySubscription struct {
	Plan   *LegacyPlan `json:"plan,omitempty"`
	Status *string     `json:"status,omitempty"`
}

// LegacyPlan carries the plan nickname of a legacy subscription.
type LegacyPlan struct {
	Nickname *string `json:"nickname,omitempty"`
}

// membershipType returns the lowercased membership type, or "".
func (p *Profile) membershipType() string {
	if p == nil || p.MembershipType == nil {
		return ""
	}
	return strings.ToLower(*p.MembershipType)
}

// FormatSubscriptionType maps a profile into a membership label.
func FormatSubscriptionType(p *Profile) string {
	if p == nil {
		return MembershipFree
	}

	if p.MembershipType != nil {
		membership := strings.ToLower(*p.MembershipType)
		status := ""
		if p.SubscriptionStatus != nil {
			status = strings.ToLower(*p.SubscriptionStatus)
		}

		if status == "active" {
			if label, ok := membershipLabels[membership]; ok {
				return label
			}
			if membership != "" {
				return capitalize(membership)
			}
			return MembershipActiveSub
		}
		if status != "" {
			return fmt.Sprintf("%s (%s)", capitalize(membership), status)
		}
	}

	if sub := p.Subscription; sub != nil {
		plan := membershipLegacyPlan
		if sub.Plan != nil && sub.Plan.Nickname != nil {
			plan = *sub.Plan.Nickname
		}
		status := membershipLegacyStatus
		if sub.Status != nil {
			status = *sub.Status
		}

		if !strings.EqualFold(status, "active") {
			return fmt.Sprintf("%s (%s)", plan, status)
		}
		lower := strings.ToLower(plan)
		for _, fragment := range legacyPlanOrder {
			if strings.Contains(lower, fragment) {
				return membershipLabels[fragment]
			}
		}
		return plan
	}

	return MembershipFree
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
	return string(runes)
}

// FetchPass says whether a summary is computed on the first fetch of an
// account or while refreshing a saved record.
type FetchPass int

const (
	FirstFetch FetchPass = iota
	RefreshPass
)

// SubscriptionSummary is the normalized interpretation of a profile.
type SubscriptionSummary struct {
	Membership         string `json:"membership"`
	OnTrial            bool   `json:"on_trial"`
	TrialDaysRemaining *int   `json:"trial_days_remaining,omitempty"`
	TrialStatus        string `json:"trial_status"`
	TrialRemaining     string `json:"pro_trial_remaining"`
}

// Summarize builds the summary for a profile. The pass only changes how a
// trial with no remaining days is described.
func Summarize(p *Profile, pass FetchPass) SubscriptionSummary {
	summary := SubscriptionSummary{
		Membership:     FormatSubscriptionType(p),
		TrialStatus:    TrialNotOnTrial,
		TrialRemaining: TrialNotApplicable,
	}

	if !strings.Contains(p.membershipType(), "trial") {
		return summary
	}
	summary.OnTrial = true

	if p.DaysRemainingOnTrial != nil && *p.DaysRemainingOnTrial > 0 {
		days := strconv.FormatFloat(*p.DaysRemainingOnTrial, 'f', -1, 64)
		whole := int(*p.DaysRemainingOnTrial)
		summary.TrialDaysRemaining = &whole
		summary.TrialStatus = fmt.Sprintf("Active - %s days remaining", days)
		summary.TrialRemaining = fmt.Sprintf("%s days remaining", days)
		return summary
	}

	if pass == RefreshPass {
		summary.TrialStatus = TrialExpired
		summary.TrialRemaining = TrialExpiredShort
	} else {
		summary.TrialStatus = TrialChecking
		summary.TrialRemaining = TrialCheckingShort
	}
	return summary
}

// Usage is the request usage reported by the legacy cookie-authenticated endpoint.
type Usage struct {
	PremiumUsage    int    `json:"premium_usage"`
	MaxPremiumUsage int    `json:"max_premium_usage"`
	BasicUsage      int    `json:"basic_usage"`
	MaxBasicUsage   string `json:"max_basic_usage"`
}

// Usage defaults applied when the endpoint omits a limit.
const (
	DefaultMaxPremiumUsage = 999
	UsageNoLimit           = "No Limit"
)
