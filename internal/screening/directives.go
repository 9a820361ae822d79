package screening

// Canned dialogue responses.

func backToMenu() Directive {
	return NewDirective(
		Say("Ok no problem! Let's go back to the menu"),
		RedirectTo(TaskMenu),
	)
}

func unknownAnswer() Directive {
	return NewDirective(
		Say("Cool! No problem, let's get back to the menu"),
		RedirectTo(TaskMenu),
	)
}

func needName() Directive {
	return NewDirective(
		Say("Sorry, I cannot continue until you give me your name 🙏"),
		RedirectTo(TaskCanHaveName),
	)
}

func skipRiskQuestion() Directive {
	return NewDirective(
		Say("Your country already has cases of COVID-19, so we will skip that question; let's go with the rest"),
		RedirectTo(TaskRestOfQuestions),
	)
}

func letsStart() Directive {
	return NewDirective(
		Say("Alright, let's start"),
		RedirectTo(TaskLivesInArea),
	)
}

func restOfQuestions() Directive {
	return NewDirective(RedirectTo(TaskRestOfQuestions))
}

// NotInDanger answers users outside any risk zone.
func NotInDanger() Directive {
	return NewDirective(
		Say("Good news! Your area has no reported COVID-19 cases, so you are probably not in danger."),
		Say("Keep washing your hands often and avoid crowded places."),
		RedirectTo(TaskMenu),
	)
}

// PreResultsWarning follows every recommendation to seek medical attention.
func PreResultsWarning() Directive {
	return NewDirective(
		Say("Please call your local health line before going to a hospital, and stay home meanwhile."),
		Say("Remember this screening is not a diagnosis."),
		RedirectTo(TaskMenu),
	)
}

func seekMedicalAttention() Directive {
	return NewDirective(
		Say("You should seek medical attention as soon as possible"),
	).Then(PreResultsWarning().Actions...)
}

func probablyNotCovid(next Task) Directive {
	return NewDirective(
		Say("You probably do not have COVID-19, but, according to your symptoms, you should seek medical attention anyways"),
		RedirectTo(next),
	)
}

func nothingToWorry() Directive {
	return NewDirective(
		Say("Great news! You do not have anything to worry about 🥳"),
		RedirectTo(TaskMenu),
	)
}

func analysisFailed() Directive {
	return NewDirective(
		Say("Sorry, our super AI doctor had a problem analysing the results; please try again."),
		RedirectTo(TaskMenu),
	)
}

// Fallback sends the dialogue to the generic retry task.
func Fallback() Directive {
	return NewDirective(RedirectTo(TaskFallback))
}

// ErrorFallback answers requests that failed unexpectedly.
func ErrorFallback() Directive {
	return NewDirective(
		Say("Oops, looks like I couldn't fulfill your task; let's try again"),
		RedirectTo(TaskMenu),
	)
}
