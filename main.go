package main

import "github.com/Alijeyrad/mentorbook_backend/cmd"

func main() {
	cmd.Execute()
}
