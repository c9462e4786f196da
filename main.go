package main

import "github.com/saadjs/mealplan-cli/cmd/mealplan"

func main() {
	mealplan.Execute()
}
