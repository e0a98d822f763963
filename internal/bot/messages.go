package bot

const msgWelcome = `Welcome to PocketTherapy 🌱
A quiet place to check in with yourself.

Send /mood followed by a number from 1 (very low) to 5 (great), and add a few words if you like.
Use /exercise for something short to try right now, and /sos any time you need support.
/help lists everything else.`

const msgHelp = `Available commands:
/mood <1-5> [note] - check in
/insights - patterns in your recent check-ins
/exercise [short|medium|long] - exercises picked for you
/sos - calming steps and people you can reach right now
/done <exercise-id> [rating 1-5] - log a finished exercise
/history - your latest check-ins
/contact <phone|text|chat|website> - reach a support line your preferred way
/favorite <breathing|grounding|cognitive> - see more of a category
/avoid <exercise-id> - see an exercise less often

You can also just send a number from 1 to 5.`

const (
	msgUnknownCommand = "I don't know that command yet. /help lists what I can do."
	msgUnknownText    = "Thanks for sharing. To check in, send a number from 1 to 5, or /help for more."

	msgMoodUsage     = "Send /mood with a number from 1 to 5, for example: /mood 3 long day"
	msgDoneUsage     = "Send /done with an exercise id, for example: /done box-breathing 4"
	msgContactUsage  = "Send /contact with phone, text, chat or website."
	msgFavoriteUsage = "Send /favorite with breathing, grounding or cognitive."
	msgAvoidUsage    = "Send /avoid with an exercise id from /exercise."

	msgSaveFailed      = "I couldn't save that just now. Please try again in a moment."
	msgLoadFailed      = "I couldn't load that just now. Please try again in a moment."
	msgNoHistory       = "No check-ins yet. Send /mood whenever you're ready."
	msgNoExercises     = "No exercises are available right now. Please try again a little later."
	msgUnknownExercise = "I couldn't find that exercise. /exercise shows the ones available."
	msgRatingRange     = "Ratings go from 1 to 5. Try again, or leave the rating out."

	msgVeryLowCheckIn  = "That sounds really hard. If you'd like support right now, /sos is always here."
	msgCrisisHeader    = "You don't have to go through this alone. These people are ready to listen:"
	msgSOSHeader       = "Let's take this one step at a time."
	msgContactIntro    = "Here is a way to reach %s:"
	msgFavoriteAdded   = "Got it, you'll see more %s exercises."
	msgFavoriteRemoved = "Okay, %s is no longer a favorite."
	msgAvoidAdded      = "Okay, I'll suggest %s less often."
	msgAvoidRemoved    = "Okay, %s is back in the regular mix."
	msgDoneLogged      = "Nice work finishing %s. 🌿"
)

func staticMessages() []string {
	return []string{
		msgWelcome, msgHelp, msgUnknownCommand, msgUnknownText,
		msgMoodUsage, msgDoneUsage, msgContactUsage, msgFavoriteUsage, msgAvoidUsage,
		msgSaveFailed, msgLoadFailed, msgNoHistory, msgNoExercises, msgUnknownExercise, msgRatingRange,
		msgVeryLowCheckIn, msgCrisisHeader, msgSOSHeader, msgContactIntro,
		msgFavoriteAdded, msgFavoriteRemoved, msgAvoidAdded, msgAvoidRemoved, msgDoneLogged,
	}
}
