package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sing3demons/go-order-admin/client/admin"
	"github.com/sing3demons/go-order-admin/client/orderapi"
	config "github.com/sing3demons/go-order-admin/configs"
	"github.com/sing3demons/go-order-admin/pkg/logger"
)

type changedMsg struct{}

type alertMsg string

type actionResult struct {
	status string
}

type orderRef struct {
	ID        primitive.ObjectID
	paid      bool
	delivered bool
}

type model struct {
	view     *admin.View
	selected int
	status   string
	alert    string
	busy     bool
}

func (m model) Init() tea.Cmd {
	return waitForChange(m.view)
}

func waitForChange(v *admin.View) tea.Cmd {
	return func() tea.Msg {
		<-v.Changes()
		return changedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.alert != "" {
			m.alert = ""
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.view.Orders())-1 {
				m.selected++
			}
		case "p":
			return m.toggle(admin.FieldPaid)
		case "d":
			return m.toggle(admin.FieldDelivered)
		case "x":
			o, ok := m.current()
			if !ok || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Deleting " + o.ID.Hex() + "..."
			return m, run(func(ctx context.Context) string {
				if err := m.view.Delete(ctx, o.ID.Hex()); err != nil {
					return "Delete failed"
				}
				return "Order deleted"
			})
		case "r":
			m.status = "Refreshing..."
			return m, run(func(ctx context.Context) string {
				if err := m.view.Refresh(ctx); err != nil {
					return "Refresh failed: " + err.Error()
				}
				return "Refreshed"
			})
		}
	case changedMsg:
		if n := len(m.view.Orders()); m.selected >= n && n > 0 {
			m.selected = n - 1
		}
		return m, waitForChange(m.view)
	case actionResult:
		m.busy = false
		m.status = msg.status
	case alertMsg:
		m.alert = string(msg)
	}
	return m, nil
}

func (m model) current() (orderRef, bool) {
	orders := m.view.Orders()
	if m.selected < 0 || m.selected >= len(orders) {
		return orderRef{}, false
	}
	o := orders[m.selected]
	return orderRef{ID: o.ID, paid: o.IsPaid != nil && *o.IsPaid, delivered: o.IsDelivered != nil && *o.IsDelivered}, true
}

func (m model) toggle(field admin.Field) (tea.Model, tea.Cmd) {
	o, ok := m.current()
	if !ok || m.busy {
		return m, nil
	}
	value := !o.paid
	if field == admin.FieldDelivered {
		value = !o.delivered
	}
	m.busy = true
	m.status = fmt.Sprintf("Setting %s=%t on %s...", field, value, o.ID.Hex())
	return m, run(func(ctx context.Context) string {
		if err := m.view.SetStatus(ctx, o.ID.Hex(), field, value); err != nil {
			return "Update failed: " + err.Error()
		}
		return "Order updated"
	})
}

func run(fn func(ctx context.Context) string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return actionResult{status: fn(ctx)}
	}
}

func (m model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "Manage Orders")
	fmt.Fprintln(b, "")
	if m.view.State() == admin.StateReady {
		fmt.Fprint(b, admin.RenderTable(m.view.Orders(), m.selected))
	} else {
		fmt.Fprintln(b, m.view.Render())
	}
	fmt.Fprintln(b, "")
	if m.alert != "" {
		fmt.Fprintf(b, "!! %s (press any key)\n", m.alert)
	}
	if m.status != "" {
		fmt.Fprintf(b, "Status: %s\n", m.status)
	}
	fmt.Fprintln(b, "\nControls: up/down select, p toggle paid, d toggle delivered, x delete, r refresh, q quit")
	return b.String()
}

func main() {
	conf := config.NewConfig()
	conf.LoadEnv("configs")

	baseURL := flag.String("base-url", conf.GetOrDefault("ORDER_BASE_URL", "http://localhost:"+conf.Server.AppPort), "order service base URL")
	token := flag.String("token", conf.Get("ADMIN_TOKEN"), "admin bearer token")
	flag.Parse()

	logFile := conf.Log.App
	logFile.Name = "admin"
	logFile.Console = false
	if logFile.Path == "" {
		logFile.Path = "logs"
	}
	log := logger.NewLogger(logFile)
	defer log.Sync()

	var opts []orderapi.Option
	if *token != "" {
		opts = append(opts, orderapi.WithToken(*token))
	}
	client := orderapi.New(*baseURL, opts...)

	alerts := make(chan string, 1)
	view := admin.NewView(context.Background(), client,
		admin.WithLogger(log),
		admin.WithAlerter(func(message string) {
			select {
			case alerts <- message:
			default:
			}
		}),
	)
	defer view.Close()

	program := tea.NewProgram(model{view: view, status: "Connecting to " + *baseURL})
	go func() {
		for message := range alerts {
			program.Send(alertMsg(message))
		}
	}()

	if _, err := program.Run(); err != nil {
		log.Errorf("admin ui: %v", err)
		os.Exit(1)
	}
}
