package components

import (
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/kakeibo/internal/model"
	"github.com/Veraticus/kakeibo/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// MaxAmountDigits caps keypad entry.
const MaxAmountDigits = 8

type formField int

const (
	fieldAmount formField = iota
	fieldNote
)

// FormKeyMap defines the add form's key bindings.
type FormKeyMap struct {
	DoubleZero  key.Binding
	Backspace   key.Binding
	ToggleType  key.Binding
	PrevCat     key.Binding
	NextCat     key.Binding
	PrevDay     key.Binding
	NextDay     key.Binding
	SwitchField key.Binding
	Submit      key.Binding
	Cancel      key.Binding
}

// DefaultFormKeyMap returns the default add form bindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		DoubleZero: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "00"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete digit"),
		),
		ToggleType: key.NewBinding(
			key.WithKeys("t", "ctrl+t"),
			key.WithHelp("t", "支出/収入"),
		),
		PrevCat: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "category"),
		),
		NextCat: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "category"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous day"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next day"),
		),
		SwitchField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "amount/memo"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "決定"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "back"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.ToggleType, k.NextCat, k.SwitchField, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.DoubleZero, k.Backspace, k.Submit},
		{k.ToggleType, k.PrevCat, k.NextCat},
		{k.PrevDay, k.NextDay, k.SwitchField, k.Cancel},
	}
}

// AddForm is the transaction entry form: a digit keypad for the amount,
// a type toggle, a category picker, a date stepper and a memo field.
type AddForm struct {
	date     time.Time
	catalog  model.Catalog
	note     textinput.Model
	keys     FormKeyMap
	theme    themes.Theme
	typ      model.TransactionType
	amount   string
	catIndex int
	focus    formField
	width    int
}

// NewAddForm creates an expense form dated today.
func NewAddForm(catalog model.Catalog, theme themes.Theme, today time.Time) AddForm {
	note := textinput.New()
	note.Placeholder = "例：ランチ、日用品..."
	note.Prompt = ""
	note.CharLimit = 0

	return AddForm{
		catalog: catalog,
		theme:   theme,
		keys:    DefaultFormKeyMap(),
		note:    note,
		typ:     model.TypeExpense,
		date:    today,
		width:   60,
	}
}

// Type returns the selected transaction type.
func (f AddForm) Type() model.TransactionType { return f.typ }

// AmountText returns the digits entered so far.
func (f AddForm) AmountText() string { return f.amount }

// Amount returns the entered amount; 0 when nothing valid was entered.
func (f AddForm) Amount() int64 {
	n, err := strconv.ParseInt(f.amount, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Category returns the selected category.
func (f AddForm) Category() model.Category {
	return f.catalog.For(f.typ)[f.catIndex]
}

// Date returns the selected date.
func (f AddForm) Date() time.Time { return f.date }

// Note returns the memo text.
func (f AddForm) Note() string { return f.note.Value() }

// CanSubmit reports whether the amount is non-empty and non-zero.
func (f AddForm) CanSubmit() bool {
	return f.Amount() > 0
}

// KeyMap returns the form's bindings for the help view.
func (f AddForm) KeyMap() FormKeyMap { return f.keys }

// Resize sets the render width.
func (f *AddForm) Resize(width int) {
	f.width = width
	f.note.Width = max(width-12, 10)
}

// Input appends keypad input: a single digit or "00". Input is ignored
// once the amount already has MaxAmountDigits digits.
func (f *AddForm) Input(digits string) {
	if len(f.amount) >= MaxAmountDigits {
		return
	}
	f.amount += digits
}

// Backspace removes the last digit.
func (f *AddForm) Backspace() {
	if f.amount != "" {
		f.amount = f.amount[:len(f.amount)-1]
	}
}

// SetType switches between expense and income and resets the category to
// the first entry of the new type's list.
func (f *AddForm) SetType(t model.TransactionType) {
	f.typ = t
	f.catIndex = 0
}

// CycleCategory moves the category selection by step, wrapping around.
func (f *AddForm) CycleCategory(step int) {
	n := len(f.catalog.For(f.typ))
	f.catIndex = ((f.catIndex+step)%n + n) % n
}

// ShiftDate moves the date by whole days.
func (f *AddForm) ShiftDate(days int) {
	f.date = f.date.AddDate(0, 0, days)
}

// Reset clears the amount and memo after a successful submit. Type,
// category and date are kept.
func (f *AddForm) Reset() {
	f.amount = ""
	f.note.SetValue("")
	f.focusAmount()
}

func (f *AddForm) focusAmount() {
	f.focus = fieldAmount
	f.note.Blur()
}

// Update handles key input.
func (f AddForm) Update(msg tea.Msg) (AddForm, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if f.focus == fieldNote {
			var cmd tea.Cmd
			f.note, cmd = f.note.Update(msg)
			return f, cmd
		}
		return f, nil
	}

	switch {
	case key.Matches(keyMsg, f.keys.Cancel):
		return f, func() tea.Msg { return CancelMsg{} }
	case key.Matches(keyMsg, f.keys.Submit):
		return f, f.submit()
	case key.Matches(keyMsg, f.keys.SwitchField):
		if f.focus == fieldAmount {
			f.focus = fieldNote
			cmd := f.note.Focus()
			return f, cmd
		}
		f.focusAmount()
		return f, nil
	}

	if f.focus == fieldNote {
		var cmd tea.Cmd
		f.note, cmd = f.note.Update(msg)
		return f, cmd
	}

	switch {
	case key.Matches(keyMsg, f.keys.DoubleZero):
		f.Input("00")
	case key.Matches(keyMsg, f.keys.Backspace):
		f.Backspace()
	case key.Matches(keyMsg, f.keys.ToggleType):
		if f.typ == model.TypeExpense {
			f.SetType(model.TypeIncome)
		} else {
			f.SetType(model.TypeExpense)
		}
	case key.Matches(keyMsg, f.keys.PrevCat):
		f.CycleCategory(-1)
	case key.Matches(keyMsg, f.keys.NextCat):
		f.CycleCategory(1)
	case key.Matches(keyMsg, f.keys.PrevDay):
		f.ShiftDate(-1)
	case key.Matches(keyMsg, f.keys.NextDay):
		f.ShiftDate(1)
	case keyMsg.Type == tea.KeyRunes && len(keyMsg.Runes) == 1 && keyMsg.Runes[0] >= '0' && keyMsg.Runes[0] <= '9':
		f.Input(string(keyMsg.Runes))
	}
	return f, nil
}

// submit emits SubmitMsg; an empty or zero amount is refused silently.
func (f AddForm) submit() tea.Cmd {
	if !f.CanSubmit() {
		return nil
	}
	msg := SubmitMsg{
		Type:     f.typ,
		Amount:   f.Amount(),
		Category: f.Category(),
		Note:     strings.TrimSpace(f.note.Value()),
		Date:     f.date,
	}
	return func() tea.Msg { return msg }
}

// View renders the form.
func (f AddForm) View() string {
	accent := f.theme.Expense
	if f.typ == model.TypeIncome {
		accent = f.theme.Income
	}
	active := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#fafafa")).Background(accent).Padding(0, 1)
	inactive := lipgloss.NewStyle().Foreground(f.theme.Muted).Padding(0, 1)
	label := lipgloss.NewStyle().Foreground(f.theme.Muted)

	expense, income := inactive.Render("支出"), inactive.Render("収入")
	if f.typ == model.TypeExpense {
		expense = active.Render("支出")
	} else {
		income = active.Render("収入")
	}
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		f.theme.Title.Render("記録を追加"), "  ", expense, income)

	cats := make([]string, 0, len(f.catalog.For(f.typ)))
	for i, c := range f.catalog.For(f.typ) {
		style := themes.GetCategoryStyle(c.ID)
		text := style.Icon + " " + c.Name
		if i == f.catIndex {
			cats = append(cats, f.theme.Selected.Render(text))
		} else {
			cats = append(cats, lipgloss.NewStyle().Foreground(style.Color).Render(text))
		}
	}
	categories := lipgloss.NewStyle().Width(f.width).Render(strings.Join(cats, "  "))

	amount := f.amount
	if amount == "" {
		amount = "0"
	}
	amountStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	cursor := ""
	if f.focus == fieldAmount {
		cursor = "▏"
	}

	submit := lipgloss.NewStyle().Foreground(f.theme.Muted).Render("[ 決定 ]")
	if f.CanSubmit() {
		submit = lipgloss.NewStyle().Bold(true).Foreground(accent).Render("[ 決定 ]")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		label.Render("カテゴリ"),
		categories,
		"",
		label.Render("日付")+"  "+f.date.Format("2006-01-02"),
		label.Render("メモ (任意)")+"  "+f.note.View(),
		"",
		amountStyle.Render("¥ "+amount+cursor),
		"",
		submit,
	)
}
