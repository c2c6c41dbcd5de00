package notionsync

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/submanager/internal/domain"
	"github.com/dvloznov/submanager/internal/stats"
	"github.com/jomei/notionapi"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Property names of the subscriptions database.
const (
	PropName         = "Name"
	PropID           = "Subscription ID"
	PropAmount       = "Amount"
	PropMonthlyCost  = "Monthly Cost"
	PropFrequency    = "Frequency"
	PropCategory     = "Category"
	PropLastPayment  = "Last Payment"
	PropNextPayment  = "Next Payment"
	PropTransactions = "Transactions"
	PropTotalSpent   = "Total Spent"
	PropConfidence   = "Confidence"
	PropCancel       = "Cancel"
)

var titleCaser = cases.Title(language.Und)

// SubscriptionToNotionProperties converts a detected subscription to Notion
// page properties. "Subscription ID" is the sync key.
func SubscriptionToNotionProperties(sub domain.Subscription) notionapi.Properties {
	return notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Title: richText(sub.Name),
		},
		PropID: notionapi.RichTextProperty{
			RichText: richText(sub.ID),
		},
		PropAmount: notionapi.NumberProperty{
			Number: sub.Amount,
		},
		PropMonthlyCost: notionapi.NumberProperty{
			Number: stats.MonthlyEquivalent(sub),
		},
		PropFrequency: notionapi.SelectProperty{
			Select: notionapi.Option{Name: titleCaser.String(string(sub.Frequency))},
		},
		PropCategory: notionapi.SelectProperty{
			Select: notionapi.Option{Name: titleCaser.String(string(sub.Category))},
		},
		PropLastPayment: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: notionDate(sub.LastPaymentDate)},
		},
		PropNextPayment: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: notionDate(sub.NextPaymentDate)},
		},
		PropTransactions: notionapi.NumberProperty{
			Number: float64(sub.TransactionCount),
		},
		PropTotalSpent: notionapi.NumberProperty{
			Number: sub.TotalSpent,
		},
		PropConfidence: notionapi.NumberProperty{
			Number: float64(sub.Confidence),
		},
		PropCancel: notionapi.CheckboxProperty{
			Checkbox: sub.MarkedForCancellation,
		},
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{
				Content: content,
			},
		},
	}
}

func notionDate(d civil.Date) *notionapi.Date {
	nd := notionapi.Date(time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC))
	return &nd
}

// extractSubscriptionID reads the sync key from a queried page.
// Returns empty string if not found.
func extractSubscriptionID(page notionapi.Page) string {
	if prop, ok := page.Properties[PropID]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok {
			if len(rt.RichText) > 0 {
				return rt.RichText[0].PlainText
			}
		}
	}
	return ""
}
