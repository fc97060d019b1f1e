package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Custom Account fields carrying segmentation state.
const (
	FieldArchived      = "Archived__c"
	FieldSegment       = "Segment__c"
	FieldSegmentByYear = "Segment_By_Year__c"
	FieldSnoozedUntil  = "Snoozed_Until__c"
)

// Account represents a Salesforce Account record with segmentation fields.
type Account struct {
	ID            string  `json:"Id" salesforce:"Id"`
	Name          string  `json:"Name" salesforce:"Name"`
	AnnualRevenue float64 `json:"AnnualRevenue" salesforce:"AnnualRevenue"`
	Archived      bool    `json:"Archived__c" salesforce:"Archived__c"`
	Segment       string  `json:"Segment__c" salesforce:"Segment__c"`
	SegmentByYear string  `json:"Segment_By_Year__c" salesforce:"Segment_By_Year__c"`
	SnoozedUntil  string  `json:"Snoozed_Until__c" salesforce:"Snoozed_Until__c"`
}

// accountFields are the SOQL fields selected for Account queries.
var accountFields = []string{
	"Id", "Name", "AnnualRevenue",
	FieldArchived, FieldSegment, FieldSegmentByYear, FieldSnoozedUntil,
}

// ListAccounts returns every Account ordered by Id. go-salesforce follows
// nextRecordsUrl, so one call returns the full result set.
func ListAccounts(ctx context.Context, c Client) ([]Account, error) {
	soql := fmt.Sprintf("SELECT %s FROM Account ORDER BY Id", strings.Join(accountFields, ", "))

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrap(err, "sf: list accounts")
	}
	return accounts, nil
}

// UpdateAccountSegment writes the segment letter and the JSON year map.
func UpdateAccountSegment(ctx context.Context, c Client, accountID, letter, byYearJSON string) error {
	if accountID == "" {
		return eris.New("sf: account id is required")
	}
	fields := map[string]any{
		FieldSegment:       letter,
		FieldSegmentByYear: byYearJSON,
	}
	if err := c.UpdateOne(ctx, "Account", accountID, fields); err != nil {
		return eris.Wrap(err, fmt.Sprintf("sf: update account segment %s", accountID))
	}
	return nil
}
