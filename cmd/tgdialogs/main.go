// Command tgdialogs runs a Telegram bot driven by dialogs and manages their sessions.
package main

func main() {
	Execute()
}
