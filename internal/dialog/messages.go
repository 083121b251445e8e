package dialog

const (
	msgCapabilities  = "How may I help you today? I can help you book train tickets, predict the arrival of your delayed train or answer questions about train services."
	msgGreeting      = "Hello! " + msgCapabilities
	msgNotUnderstood = "Sorry, I did not understand that."
	msgReset         = "Okay, let's start again."
	msgGoodbye       = "Thank you for using railchat. Have a good journey!"

	msgAskDeparture   = "Where are you departing from?"
	msgAskArrival     = "Where is your destination?"
	msgAskDelay       = "How long were you delayed by?"
	msgAskOutDate     = "What date are you leaving?"
	msgAskOutTime     = "What time are you leaving?"
	msgAskReturn      = "Are you planning to return?"
	msgAskReturnDate  = "What date are you returning?"
	msgAskReturnTime  = "What time would you like to return?"
	msgAskCorrect     = "Is this correct?"
	msgAskAdjust      = "What would you like to adjust?"
	msgAskNext        = "Is there anything else I can help you with?"
	msgAskHelpTopic   = "What would you like help with?"
	msgPickStation    = "Did you mean one of these stations?"
	msgPickInLocation = "Which station in %s did you mean?"

	msgInvalidStation = "Please enter a valid station."
	msgSameStation    = "Your destination must be different from %s."
	msgSameDeparture  = "Your departure station must be different from %s."
	msgInvalidDate    = "Please enter a valid date."
	msgDateFrom       = "Please enter a date that is %s or later."
	msgDateFromToday  = "Please enter a date that is today (%s) or later."
	msgDateWindow     = "Tickets can only be booked up to 11 weeks ahead, please enter a date on or before %s."
	msgInvalidTime    = "Please enter a valid time."
	msgTimeAfter      = "Please enter a time after %s"
	msgInvalidDelay   = "Please tell me the delay in minutes, for example \"15 minutes\"."
	msgUnknownTopic   = "Sorry, I have no information about %s."

	msgFareUnavailable  = "Sorry, I could not find a fare for that journey (%s). You can try again or adjust your booking."
	msgDelayUnavailable = "Sorry, I could not predict that delay (%s)."
)
