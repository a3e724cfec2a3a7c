package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChecked MsgKind = iota
	MsgLoaded
	MsgMutated
	MsgAuthDone
	MsgLoggedOut
	MsgRedirect
	MsgPosterOpened
)

type loaded struct {
	view    ViewState
	applied bool
}

type authDone struct {
	res services.AuthResult
	err error
}

type redirect struct {
	to   string
	from string
}

// sessionCheckedMsg is the constructor for [MsgSessionChecked]
func sessionCheckedMsg(err error) Msg {
	return Msg{kind: MsgSessionChecked, data: err}
}

// loadedMsg is the constructor for [MsgLoaded]. applied is false when the result was superseded.
func loadedMsg(view ViewState, applied bool) Msg {
	return Msg{kind: MsgLoaded, data: loaded{view, applied}}
}

// mutatedMsg is the constructor for [MsgMutated]
func mutatedMsg(res tasks.MutationResult) Msg {
	return Msg{kind: MsgMutated, data: res}
}

// authDoneMsg is the constructor for [MsgAuthDone]
func authDoneMsg(res services.AuthResult, err error) Msg {
	return Msg{kind: MsgAuthDone, data: authDone{res, err}}
}

// loggedOutMsg is the constructor for [MsgLoggedOut]
func loggedOutMsg(err error) Msg {
	return Msg{kind: MsgLoggedOut, data: err}
}

// redirectMsg is the constructor for [MsgRedirect]
func redirectMsg(to, from string) Msg {
	return Msg{kind: MsgRedirect, data: redirect{to, from}}
}

// posterOpenedMsg is the constructor for [MsgPosterOpened]
func posterOpenedMsg(err error) Msg {
	return Msg{kind: MsgPosterOpened, data: err}
}

func asError(data any) error {
	err, _ := data.(error)
	return err
}
