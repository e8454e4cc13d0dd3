package game

import "errors"

// Size is the board edge length.
const Size = 3

var (
	ErrInvalidCell  = errors.New("invalid cell index")
	ErrCellOccupied = errors.New("cell is already occupied")
)

// Cell is a single board cell. The zero value is an empty cell.
type Cell uint8

const (
	Empty Cell = iota
	Mark1
	Mark2
)

func (that Cell) String() string {
	switch that {
	case Mark1:
		return "X"
	case Mark2:
		return "O"
	default:
		return ""
	}
}

// Slot identifies one of the two participants of a match. NoSlot means
// "nobody", e.g. the turn holder of a finished game.
type Slot uint8

const (
	NoSlot Slot = 0
	Slot1  Slot = 1
	Slot2  Slot = 2
)

func (that Slot) Other() Slot {
	switch that {
	case Slot1:
		return Slot2
	case Slot2:
		return Slot1
	default:
		return NoSlot
	}
}

func (that Slot) Mark() Cell {
	switch that {
	case Slot1:
		return Mark1
	case Slot2:
		return Mark2
	default:
		return Empty
	}
}

// Board is an immutable value; Apply returns a new board and never mutates
// its input.
type Board [Size][Size]Cell

type Move struct {
	Row int
	Col int
}

// Result is the terminal outcome of a board. ResultNone means play continues.
type Result uint8

const (
	ResultNone Result = iota
	ResultSlot1Win
	ResultSlot2Win
	ResultDraw
)

func (that Result) String() string {
	switch that {
	case ResultSlot1Win:
		return "player1_win"
	case ResultSlot2Win:
		return "player2_win"
	case ResultDraw:
		return "draw"
	default:
		return ""
	}
}

// WinnerSlot - maps a winning result back to the slot that won.
func (that Result) WinnerSlot() Slot {
	switch that {
	case ResultSlot1Win:
		return Slot1
	case ResultSlot2Win:
		return Slot2
	default:
		return NoSlot
	}
}

// WinFor - the terminal result that declares the given slot the winner.
func WinFor(slot Slot) Result {
	if slot == Slot2 {
		return ResultSlot2Win
	}
	return ResultSlot1Win
}

// Legal - reports whether the move targets an empty cell inside the board.
func Legal(board Board, move Move) bool {
	if move.Row < 0 || move.Row >= Size || move.Col < 0 || move.Col >= Size {
		return false
	}

	return board[move.Row][move.Col] == Empty
}

// Apply - places the slot's mark and returns the resulting board.
func Apply(board Board, move Move, slot Slot) (Board, error) {
	if move.Row < 0 || move.Row >= Size || move.Col < 0 || move.Col >= Size {
		return board, ErrInvalidCell
	}

	if board[move.Row][move.Col] != Empty {
		return board, ErrCellOccupied
	}

	board[move.Row][move.Col] = slot.Mark()

	return board, nil
}

// Winner - scans rows, then columns, then diagonals for three identical
// marks. The scan order is fixed so the result is deterministic even on
// boards unreachable through legal play.
func Winner(board Board) Slot {
	for row := 0; row < Size; row++ {
		if board[row][0] != Empty && board[row][0] == board[row][1] && board[row][1] == board[row][2] {
			return slotOf(board[row][0])
		}
	}

	for col := 0; col < Size; col++ {
		if board[0][col] != Empty && board[0][col] == board[1][col] && board[1][col] == board[2][col] {
			return slotOf(board[0][col])
		}
	}

	if board[0][0] != Empty && board[0][0] == board[1][1] && board[1][1] == board[2][2] {
		return slotOf(board[0][0])
	}

	if board[0][2] != Empty && board[0][2] == board[1][1] && board[1][1] == board[2][0] {
		return slotOf(board[0][2])
	}

	return NoSlot
}

// IsFull - reports whether no empty cells remain.
func IsFull(board Board) bool {
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			if board[row][col] == Empty {
				return false
			}
		}
	}

	return true
}

// Outcome - composes Winner and IsFull; a win takes precedence over a full
// board.
func Outcome(board Board) Result {
	switch Winner(board) {
	case Slot1:
		return ResultSlot1Win
	case Slot2:
		return ResultSlot2Win
	}

	if IsFull(board) {
		return ResultDraw
	}

	return ResultNone
}

func slotOf(cell Cell) Slot {
	switch cell {
	case Mark1:
		return Slot1
	case Mark2:
		return Slot2
	default:
		return NoSlot
	}
}
