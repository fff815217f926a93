package draw

// eDigits is the first 1000 fractional digits of Euler's number. The table
// is fixed and public on purpose: any observer can recompute a draw outcome
// from a sequence position after the event.
const eDigits = "" +
	"71828182845904523536028747135266249775724709369995" +
	"95749669676277240766303535475945713821785251664274" +
	"27466391932003059921817413596629043572900334295260" +
	"59563073813232862794349076323382988075319525101901" +
	"15738341879307021540891499348841675092447614606680" +
	"82264800168477411853742345442437107539077744992069" +
	"55170276183860626133138458300075204493382656029760" +
	"67371132007093287091274437470472306969772093101416" +
	"92836819025515108657463772111252389784425056953696" +
	"77078544996996794686445490598793163688923009879312" +
	"77361782154249992295763514822082698951936680331825" +
	"28869398496465105820939239829488793320362509443117" +
	"30123819706841614039701983767932068328237646480429" +
	"53118023287825098194558153017567173613320698112509" +
	"96181881593041690351598888519345807273866738589422" +
	"87922849989208680582574927961048419844436346324496" +
	"84875602336248270419786232090021609902353043699418" +
	"49146314093431738143640546253152096183690888707016" +
	"76839642437814059271456354906130310720851038375051" +
	"01157477041718986106873969655212671546889570350353"
