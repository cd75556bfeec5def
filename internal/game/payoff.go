package game

import "github.com/YC815/chicken-game-backend/internal/models"

// Payoffs computes both players' scores for a single Chicken round:
//
//	            TURN        ACCELERATE
//	TURN        ( 3,  3)    ( -3,  10)
//	ACCELERATE  (10, -3)    (-10, -10)
//
// The function is symmetric: swapping the arguments swaps the results.
func Payoffs(choice1, choice2 string) (int, int) {
	switch {
	case choice1 == models.ChoiceTurn && choice2 == models.ChoiceTurn:
		return 3, 3
	case choice1 == models.ChoiceTurn && choice2 == models.ChoiceAccelerate:
		return -3, 10
	case choice1 == models.ChoiceAccelerate && choice2 == models.ChoiceTurn:
		return 10, -3
	default:
		return -10, -10
	}
}
