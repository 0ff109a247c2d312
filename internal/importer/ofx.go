package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"

	"github.com/fumisaki/kakeibo/internal/model"
)

// OFXOptions extends the import policies with the category assigned to
// statement entries, since OFX carries no category information.
type OFXOptions struct {
	Options
	// CategoryName receives every imported entry. When empty the fallback
	// category name is used.
	CategoryName string
}

// fallbackOFXCategory matches the seeded catch-all expense category.
const fallbackOFXCategory = "その他"

// statementEntry is one parsed OFX transaction before repository handoff.
type statementEntry struct {
	Date        time.Time
	Description string
	Amount      float64 // OFX sign: negative for debits
}

// preprocessOFX fixes common formatting issues in OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// parseOFX reads bank and credit card statements out of an OFX/QFX file.
func parseOFX(reader io.Reader) ([]statementEntry, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var entries []statementEntry
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			for _, ofxTx := range stmt.BankTranList.Transactions {
				entries = append(entries, convertOFXTransaction(ofxTx))
			}
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			for _, ofxTx := range stmt.BankTranList.Transactions {
				entries = append(entries, convertOFXTransaction(ofxTx))
			}
		}
	}

	slog.Info("parsed OFX file", "entries", len(entries))
	return entries, nil
}

func convertOFXTransaction(ofxTx ofxgo.Transaction) statementEntry {
	amount, _ := ofxTx.TrnAmt.Float64()

	description := strings.TrimSpace(string(ofxTx.Name))
	if ofxTx.Payee != nil && ofxTx.Payee.Name != "" {
		description = strings.TrimSpace(string(ofxTx.Payee.Name))
	}
	if memo := strings.TrimSpace(string(ofxTx.Memo)); memo != "" && description == "" {
		description = memo
	}

	return statementEntry{
		Date:        ofxTx.DtPosted.Time,
		Amount:      amount,
		Description: description,
	}
}

// ImportFromOFX parses an OFX/QFX statement and applies its transactions
// through the repository. The OFX amount sign decides the transaction type
// (negative = expense); the repository re-derives the stored sign from the
// positive magnitude it receives, same as the CSV path.
func (s *Service) ImportFromOFX(ctx context.Context, reader io.Reader, options OFXOptions, onProgress ProgressFunc) (*Result, error) {
	notify := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	entries, err := parseOFX(reader)
	if err != nil {
		return nil, err
	}

	result := &Result{}

	categoryName := options.CategoryName
	if categoryName == "" {
		categoryName = fallbackOFXCategory
	}
	category, err := s.resolveCategory(ctx, categoryName, options.Options)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetTransactions(ctx, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(existing))
	for _, txn := range existing {
		seen[duplicateKey(txn.Date, txn.Amount, txn.Description)] = true
	}

	notify(Progress{Stage: StageTransactions, Total: len(entries)})
	for i, entry := range entries {
		rowNum := i + 1
		notify(Progress{Stage: StageTransactions, Current: i + 1, Total: len(entries)})

		txnType := model.TransactionTypeIncome
		if entry.Amount < 0 {
			txnType = model.TransactionTypeExpense
		}
		magnitude := math.Abs(entry.Amount)
		signed := model.SignedAmount(txnType, magnitude)

		if options.SkipDuplicates && seen[duplicateKey(entry.Date, signed, entry.Description)] {
			result.Transactions.Skipped++
			continue
		}

		created, createErr := s.repo.CreateTransaction(ctx, model.CreateTransactionInput{
			Date:        entry.Date,
			Amount:      magnitude,
			Description: entry.Description,
			CategoryID:  category.ID,
			Type:        txnType,
		})
		if createErr != nil {
			result.Transactions.Errors++
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: createErr.Error()})
			continue
		}
		seen[duplicateKey(created.Date, created.Amount, created.Description)] = true
		result.Transactions.Imported++
	}

	notify(Progress{Stage: StageComplete, Message: "import complete", Current: len(entries), Total: len(entries)})
	return result, nil
}

// resolveCategory finds a category by name (case-insensitive), creating it
// when allowed by the options.
func (s *Service) resolveCategory(ctx context.Context, name string, options Options) (*model.Category, error) {
	categories, err := s.repo.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, name) {
			return &categories[i], nil
		}
	}
	if !options.CreateMissingCategories {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return s.repo.CreateCategory(ctx, model.CreateCategoryInput{
		Name:  name,
		Color: defaultImportColor,
		Type:  model.CategoryTypeBoth,
	})
}
