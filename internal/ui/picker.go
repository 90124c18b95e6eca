package ui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user quits a picker.
var ErrCancelled = errors.New("cancelled")

// PickerItem is one entry shown in the list picker.
type PickerItem struct {
	Label    string // primary text, e.g. wallet name
	SubLabel string // dimmed text, e.g. address
	Value    string // returned on selection
}

type listModel struct {
	title    string
	items    []PickerItem
	cursor   int
	selected *PickerItem
	quitting bool
}

func (m listModel) Init() tea.Cmd { return nil }

func (m listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter", " ":
		item := m.items[m.cursor]
		m.selected = &item
		return m, tea.Quit
	}
	return m, nil
}

func (m listModel) View() string {
	if m.quitting || m.selected != nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  "+m.title) + "\n\n")
	for i, item := range m.items {
		prefix := "    "
		if i == m.cursor {
			prefix = "  ▸ "
		}
		line := prefix + StyleValue.Render(item.Label)
		if item.SubLabel != "" {
			line += "  " + StyleMeta.Render(item.SubLabel)
		}
		if i == m.cursor {
			line = StyleSelected.Render(line)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / jk ] navigate   [ Enter ] select   [ q ] cancel") + "\n")
	return sb.String()
}

// PickItem runs the list picker and returns the chosen item's Value.
// Returns ErrCancelled if the user quits.
func PickItem(title string, items []PickerItem) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("no items to pick from")
	}

	final, err := tea.NewProgram(listModel{title: title, items: items}).Run()
	if err != nil {
		return "", fmt.Errorf("picker: %w", err)
	}
	fm := final.(listModel)
	if fm.quitting || fm.selected == nil {
		return "", ErrCancelled
	}
	return fm.selected.Value, nil
}

// AmountInfo is shown above the amount picker.
type AmountInfo struct {
	NextTokenID uint64
	PriceETH    string // per token
	Symbol      string // native currency
}

type amountModel struct {
	info     AmountInfo
	limit    int
	amount   int
	typed    string
	done     bool
	quitting bool
}

func newAmountModel(info AmountInfo, limit int) amountModel {
	return amountModel{info: info, limit: limit, amount: 1}
}

func (m amountModel) Init() tea.Cmd { return nil }

func (m amountModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "up", "k", "right", "l", "+":
		m.typed = ""
		if m.amount < m.limit {
			m.amount++
		}
	case "down", "j", "left", "h", "-":
		m.typed = ""
		if m.amount > 1 {
			m.amount--
		}
	case "backspace":
		if m.typed != "" {
			m.typed = m.typed[:len(m.typed)-1]
			m.setTyped()
		}
	case "enter":
		m.done = true
		return m, tea.Quit
	default:
		if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			m.typed += s
			m.setTyped()
		}
	}
	return m, nil
}

// setTyped applies digits typed so far, clamped to 1..limit.
func (m *amountModel) setTyped() {
	n, err := strconv.Atoi(m.typed)
	if err != nil || n < 1 {
		return
	}
	if n > m.limit {
		n = m.limit
		m.typed = strconv.Itoa(n)
	}
	m.amount = n
}

func (m amountModel) View() string {
	if m.quitting || m.done {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n" + StyleTitle.Render("  How many NFTs to mint?") + "\n")

	last := m.info.NextTokenID + uint64(m.amount) - 1
	ids := fmt.Sprintf("#%d", m.info.NextTokenID)
	if m.amount > 1 {
		ids = fmt.Sprintf("#%d to #%d", m.info.NextTokenID, last)
	}

	sb.WriteString(fmt.Sprintf("  %s  %s\n", StyleSelected.Render(fmt.Sprintf(" ◂ %d ▸ ", m.amount)), StyleMeta.Render(fmt.Sprintf("of %d available", m.limit))))
	sb.WriteString(fmt.Sprintf("  %s %s\n", StyleMeta.Render("tokens:"), Val(ids)))
	if m.info.PriceETH != "" {
		sb.WriteString(fmt.Sprintf("  %s %s %s each\n", StyleMeta.Render("price: "), Val(m.info.PriceETH), m.info.Symbol))
	}
	sb.WriteString("\n" + StyleMeta.Render("  [ ↑↓ / ←→ / digits ] change   [ Enter ] continue   [ q ] cancel") + "\n")
	return sb.String()
}

// PickAmount asks how many tokens to mint, 1..limit. Returns ErrCancelled
// if the user quits.
func PickAmount(info AmountInfo, limit int) (int, error) {
	if limit < 1 {
		return 0, fmt.Errorf("nothing available to mint")
	}
	if limit == 1 {
		return 1, nil
	}

	final, err := tea.NewProgram(newAmountModel(info, limit)).Run()
	if err != nil {
		return 0, fmt.Errorf("amount picker: %w", err)
	}
	fm := final.(amountModel)
	if fm.quitting || !fm.done {
		return 0, ErrCancelled
	}
	return fm.amount, nil
}
