package ui

import (
	"context"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/Faultbox/glbviewer/internal/auth"
	"github.com/Faultbox/glbviewer/internal/store"
	"github.com/Faultbox/glbviewer/internal/viewer"
)

// LoginScreen signs in or registers a user.
type LoginScreen struct {
	auth      *auth.Service
	poster    viewer.Poster
	onSuccess func(store.User, auth.Role)

	// Input buffers
	email    string
	password string
	role     int32 // index into auth.Roles
	register bool

	// notice is shown after a successful registration.
	notice string
}

// NewLoginScreen creates a login screen. onSuccess runs on the UI thread.
func NewLoginScreen(svc *auth.Service, poster viewer.Poster, onSuccess func(store.User, auth.Role)) *LoginScreen {
	return &LoginScreen{auth: svc, poster: poster, onSuccess: onSuccess}
}

// Render renders the login window centered in the viewport.
func (ui *LoginScreen) Render(viewportWidth, viewportHeight float32) {
	windowWidth := float32(360)
	windowHeight := float32(330)
	imgui.SetNextWindowPos(imgui.NewVec2((viewportWidth-windowWidth)/2, (viewportHeight-windowHeight)/2))
	imgui.SetNextWindowSize(imgui.NewVec2(windowWidth, windowHeight))

	title := "Sign in"
	if ui.register {
		title = "Create account"
	}
	flags := imgui.WindowFlagsNoResize | imgui.WindowFlagsNoMove | imgui.WindowFlagsNoCollapse
	if imgui.BeginV(title+"###login", nil, flags) {
		ui.renderContent()
	}
	imgui.End()
}

func (ui *LoginScreen) renderContent() {
	state := ui.auth.State()
	loading := state.Status == auth.StatusLoading

	imgui.Spacing()
	centerText("GLB Viewer")
	imgui.Spacing()
	imgui.Separator()
	imgui.Spacing()

	imgui.Text("Role:")
	for i, r := range auth.Roles {
		if i > 0 {
			imgui.SameLine()
		}
		if imgui.RadioButtonBool(r.String(), ui.role == int32(i)) {
			ui.role = int32(i)
		}
	}

	imgui.Spacing()
	imgui.Text("Email:")
	imgui.SetNextItemWidth(-1)
	imgui.InputTextWithHint("##email", "name@example.com", &ui.email, 0, nil)

	imgui.Spacing()
	imgui.Text("Password:")
	imgui.SetNextItemWidth(-1)
	submitted := imgui.InputTextWithHint("##password", "At least 6 characters", &ui.password,
		imgui.InputTextFlagsPassword|imgui.InputTextFlagsEnterReturnsTrue, nil)

	imgui.Spacing()
	if state.Status == auth.StatusError {
		imgui.TextColored(imgui.NewVec4(1, 0.3, 0.3, 1), state.Message)
		imgui.Spacing()
	} else if ui.notice != "" {
		imgui.TextColored(imgui.NewVec4(0.4, 0.9, 0.4, 1), ui.notice)
		imgui.Spacing()
	}

	label := "Sign in"
	if ui.register {
		label = "Register"
	}
	imgui.BeginDisabledV(loading)
	if imgui.ButtonV(label, imgui.NewVec2(-1, 30)) || (submitted && !loading) {
		ui.submit()
	}
	imgui.EndDisabled()

	if loading {
		imgui.Spacing()
		centerText("Working...")
	}

	imgui.Spacing()
	imgui.Separator()
	imgui.Spacing()

	toggle := "No account? Register"
	if ui.register {
		toggle = "Have an account? Sign in"
	}
	if imgui.Button(toggle) {
		ui.register = !ui.register
		ui.notice = ""
		ui.auth.Reset()
	}
}

// submit runs the request off the UI thread.
func (ui *LoginScreen) submit() {
	role := auth.Roles[ui.role]
	email, password, register := ui.email, ui.password, ui.register
	ui.notice = ""

	go func() {
		ctx := context.Background()
		if register {
			_, err := ui.auth.Register(ctx, role, email, password)
			ui.poster.Post(func() {
				if err == nil {
					ui.register = false
					ui.notice = "Account created, sign in to continue"
				}
			})
			return
		}
		u, err := ui.auth.Login(ctx, role, email, password)
		ui.poster.Post(func() {
			if err == nil {
				ui.password = ""
				ui.onSuccess(u, role)
			}
		})
	}()
}

// centerText renders centered text.
func centerText(text string) {
	textSize := imgui.CalcTextSize(text)
	windowWidth := imgui.ContentRegionAvail().X
	cursorX := (windowWidth - textSize.X) / 2
	if cursorX > 0 {
		imgui.SetCursorPosX(imgui.CursorPosX() + cursorX)
	}
	imgui.Text(text)
}
