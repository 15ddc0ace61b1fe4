package main

import "strings"

// Action identifies a menu, dock, hotkey or jump-list activation routed to
// the lifecycle controller.
type Action string

const (
	ActionNewTweet          Action = "new-tweet"
	ActionReplyToPrevTweet  Action = "reply-to-previous-tweet"
	ActionClickTweetButton  Action = "click-tweet-button"
	ActionCancelTweet       Action = "cancel-tweet"
	ActionUnlinkTweet       Action = "unlink-tweet"
	ActionAccountSettings   Action = "account-settings"
	ActionOpenPreviousTweet Action = "open-previous-tweet"
	ActionEditConfig        Action = "edit-config"
	ActionToggleWindow      Action = "toggle-window"
	ActionSwitchAccount     Action = "switch-account"
	ActionOpenProfileDebug  Action = "open-profile-debug"
	ActionQuit              Action = "quit"
)

// Menu item names usable as keys in the keymaps config section.
const (
	itemNewTweet          = "New Tweet"
	itemReplyToPrevTweet  = "Reply to Previous Tweet"
	itemClickTweetButton  = "Click Tweet Button"
	itemAccountSettings   = "Account Settings"
	itemEditConfig        = "Edit Config"
	itemOpenPreviousTweet = "Open Previous Tweet"
	itemCancelTweet       = "Cancel Tweet"
)

var defaultAccelerators = map[string]string{
	itemNewTweet:          "CmdOrCtrl+N",
	itemReplyToPrevTweet:  "CmdOrCtrl+R",
	itemClickTweetButton:  "CmdOrCtrl+Enter",
	itemAccountSettings:   "CmdOrCtrl+S",
	itemEditConfig:        "CmdOrCtrl+,",
	itemOpenPreviousTweet: "CmdOrCtrl+P",
	itemCancelTweet:       "CmdOrCtrl+Backspace",
}

// accel resolves an item's accelerator against the keymaps config: a mapped
// string replaces the default and an explicit null disables it entirely.
// Names match case-insensitively since the config loader lowercases keys.
func accel(keymaps map[string]*string, item string) string {
	mapped, ok := keymaps[item]
	if !ok {
		mapped, ok = keymaps[strings.ToLower(item)]
	}
	if ok {
		if mapped == nil {
			return ""
		}
		return *mapped
	}
	return defaultAccelerators[item]
}

// buildMenu assembles the application menu. Accounts from config become a
// switcher submenu; debug mode adds developer entries.
func buildMenu(config *Config, accounts []string, debug bool) *MenuTemplate {
	km := config.Keymaps

	tweet := []MenuItem{
		{Label: itemNewTweet, Accelerator: accel(km, itemNewTweet), Action: ActionNewTweet},
		{Label: itemReplyToPrevTweet, Accelerator: accel(km, itemReplyToPrevTweet), Action: ActionReplyToPrevTweet},
		{Separator: true},
		{Label: itemClickTweetButton, Accelerator: accel(km, itemClickTweetButton), Action: ActionClickTweetButton},
		{Label: itemCancelTweet, Accelerator: accel(km, itemCancelTweet), Action: ActionCancelTweet},
		{Label: "Unlink Tweet Text", Action: ActionUnlinkTweet},
		{Separator: true},
		{Label: itemOpenPreviousTweet, Accelerator: accel(km, itemOpenPreviousTweet), Action: ActionOpenPreviousTweet},
		{Label: itemAccountSettings, Accelerator: accel(km, itemAccountSettings), Action: ActionAccountSettings},
		{Separator: true},
		{Label: "Quit", Accelerator: "CmdOrCtrl+Q", Action: ActionQuit},
	}

	edit := []MenuItem{
		{Label: itemEditConfig, Accelerator: accel(km, itemEditConfig), Action: ActionEditConfig},
		{Separator: true},
		{Label: "Undo", Role: "undo"},
		{Label: "Redo", Role: "redo"},
		{Separator: true},
		{Label: "Cut", Role: "cut"},
		{Label: "Copy", Role: "copy"},
		{Label: "Paste", Role: "paste"},
		{Label: "Select All", Role: "selectAll"},
	}

	items := []MenuItem{
		{Label: "Tweet", Submenu: tweet},
		{Label: "Edit", Submenu: edit},
	}

	if len(accounts) > 0 {
		var sub []MenuItem
		for _, account := range accounts {
			sub = append(sub, MenuItem{
				Label:  "@" + account,
				Action: ActionSwitchAccount,
				Arg:    account,
			})
		}
		items = append(items, MenuItem{Label: "Accounts", Submenu: sub})
	}

	if debug {
		items = append(items, MenuItem{Label: "Debug", Submenu: []MenuItem{
			{Label: "Open Profile Page", Action: ActionOpenProfileDebug},
		}})
	}

	return &MenuTemplate{Items: items}
}

// dockMenu is the macOS dock menu.
func dockMenu() *MenuTemplate {
	return &MenuTemplate{Items: []MenuItem{
		{Label: itemNewTweet, Action: ActionNewTweet},
		{Label: itemReplyToPrevTweet, Action: ActionReplyToPrevTweet},
	}}
}

// userTasks is the Windows taskbar jump list. Each entry relaunches the app
// with the listed arguments; the running instance picks them up via Restart.
func userTasks() []UserTask {
	return []UserTask{
		{Title: "New Tweet", Description: "Open the new tweet form", Args: nil},
		{Title: "Reply to Previous Tweet", Description: "Open the reply form for the previous tweet", Args: []string{"--reply"}},
	}
}
